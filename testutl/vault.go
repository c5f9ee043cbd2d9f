package testutl

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// FakeVault is a minimal KV v2 server: token lookup-self plus reads and
// writes under {mount}/data/. It keeps every version written.
type FakeVault struct {
	Server *httptest.Server
	Token  string

	mu       sync.Mutex
	versions map[string][]map[string]interface{} // mount/path -> versions
	reads    int
	writes   int
	failWith int
}

// NewFakeVault starts a fake Vault accepting token. It is closed with the test.
func NewFakeVault(t testing.TB, token string) *FakeVault {
	t.Helper()
	fv := &FakeVault{
		Token:    token,
		versions: make(map[string][]map[string]interface{}),
	}
	fv.Server = httptest.NewServer(http.HandlerFunc(fv.serveHTTP))
	t.Cleanup(fv.Server.Close)
	return fv
}

// Addr is the value to use for VAULT_ADDR.
func (fv *FakeVault) Addr() string {
	return fv.Server.URL
}

// Seed stores data as a new version at path ("secret/proj/env").
func (fv *FakeVault) Seed(path string, data map[string]interface{}) {
	fv.mu.Lock()
	defer fv.mu.Unlock()
	fv.versions[path] = append(fv.versions[path], data)
}

// SoftDelete appends a deleted version (null data) at path.
func (fv *FakeVault) SoftDelete(path string) {
	fv.Seed(path, nil)
}

// Latest returns the latest data stored at path and the number of versions.
func (fv *FakeVault) Latest(path string) (map[string]interface{}, int) {
	fv.mu.Lock()
	defer fv.mu.Unlock()
	v := fv.versions[path]
	if len(v) == 0 {
		return nil, 0
	}
	return v[len(v)-1], len(v)
}

// Writes returns the number of KV writes served.
func (fv *FakeVault) Writes() int {
	fv.mu.Lock()
	defer fv.mu.Unlock()
	return fv.writes
}

// FailWith makes every KV request answer with status until reset with 0.
func (fv *FakeVault) FailWith(status int) {
	fv.mu.Lock()
	defer fv.mu.Unlock()
	fv.failWith = status
}

func (fv *FakeVault) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Vault-Token") != fv.Token {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{"errors": []string{"permission denied"}})
		return
	}
	p := strings.TrimPrefix(r.URL.Path, "/v1/")
	if p == "auth/token/lookup-self" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": map[string]interface{}{"id": fv.Token, "policies": []string{"default"}},
		})
		return
	}

	mount, rest, ok := strings.Cut(p, "/data/")
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"errors": []string{}})
		return
	}
	key := mount + "/" + rest

	fv.mu.Lock()
	defer fv.mu.Unlock()
	if fv.failWith != 0 {
		writeJSON(w, fv.failWith, map[string]interface{}{"errors": []string{"internal error"}})
		return
	}

	switch r.Method {
	case http.MethodGet:
		fv.reads++
		versions := fv.versions[key]
		if len(versions) == 0 {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"errors": []string{}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": map[string]interface{}{
				"data":     versions[len(versions)-1],
				"metadata": versionMetadata(len(versions)),
			},
		})
	case http.MethodPut, http.MethodPost:
		var body struct {
			Data map[string]interface{} `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": []string{err.Error()}})
			return
		}
		fv.writes++
		fv.versions[key] = append(fv.versions[key], body.Data)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": versionMetadata(len(fv.versions[key])),
		})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{"errors": []string{"unsupported method"}})
	}
}

func versionMetadata(version int) map[string]interface{} {
	return map[string]interface{}{
		"created_time":  time.Now().UTC().Format(time.RFC3339Nano),
		"deletion_time": "",
		"destroyed":     false,
		"version":       version,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
