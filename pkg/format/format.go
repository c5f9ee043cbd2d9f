// Package format converts bundles to and from the file formats accepted by
// export and import.
package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mscno/vaultenv"
	"gopkg.in/yaml.v3"
)

// Format is a supported bundle encoding.
type Format string

const (
	// Env is the dotenv format, one KEY="value" per line.
	Env Format = "env"
	// JSON is a flat JSON object of strings.
	JSON Format = "json"
	// YAML is a flat YAML mapping of strings.
	YAML Format = "yaml"
)

// ErrUnsupported is returned by Parse for an unknown format.
var ErrUnsupported = errors.New("unsupported format")

// validKeyPattern matches valid environment variable identifiers
var validKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidFormats returns all supported formats.
func ValidFormats() []Format {
	return []Format{Env, JSON, YAML}
}

// Parse determines the format from a format name or a filename.
// It accepts inputs like "json", ".env", "secrets.yml" or ".env.prod".
func Parse(input string) (Format, error) {
	name := strings.ToLower(filepath.Base(input))
	switch strings.TrimPrefix(name, ".") {
	case "env", "dotenv":
		return Env, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	if strings.HasPrefix(name, ".env") {
		return Env, nil
	}
	switch filepath.Ext(name) {
	case ".env":
		return Env, nil
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, input)
}

// ValidKey reports whether key can be exported as an environment variable.
func ValidKey(key string) bool {
	return validKeyPattern.MatchString(key)
}

// Encode writes bundle to w in format f with keys in lexical order.
func Encode(w io.Writer, bundle vaultenv.Bundle, f Format) error {
	if bundle == nil {
		bundle = vaultenv.Bundle{}
	}
	var out []byte
	switch f {
	case Env:
		var sb strings.Builder
		for _, k := range bundle.Keys() {
			if !ValidKey(k) {
				return fmt.Errorf("key %q is not a valid environment variable name", k)
			}
			line, err := envLine(k, bundle[k])
			if err != nil {
				return err
			}
			sb.WriteString(line)
		}
		out = []byte(sb.String())
	case JSON:
		b, err := json.MarshalIndent(map[string]string(bundle), "", "  ")
		if err != nil {
			return err
		}
		out = append(b, '\n')
	case YAML:
		if len(bundle) == 0 {
			out = []byte("{}\n")
			break
		}
		b, err := yaml.Marshal(map[string]string(bundle))
		if err != nil {
			return err
		}
		out = b
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, f)
	}
	_, err := w.Write(out)
	return err
}

// envLine quotes every value so godotenv.Parse reads it back verbatim: it
// would otherwise strip leading zeros and signs from numbers and expand
// variables. godotenv cannot read a double-quoted value ending in a quote or
// a backslash; those use single quotes when possible.
func envLine(key, value string) (string, error) {
	switch {
	case strings.HasSuffix(value, `\`):
		return "", fmt.Errorf("value of %q ends with a backslash and cannot be written as dotenv", key)
	case strings.HasSuffix(value, `"`):
		if strings.ContainsAny(value, "'\n\r") {
			return "", fmt.Errorf("value of %q cannot be written as dotenv", key)
		}
		return fmt.Sprintf("%s='%s'\n", key, value), nil
	}
	return fmt.Sprintf("%s=\"%s\"\n", key, doubleQuoteEscape(value)), nil
}

// doubleQuoteSpecialChars are escaped inside double-quoted dotenv values.
const doubleQuoteSpecialChars = "\\\n\r\"!$`"

func doubleQuoteEscape(value string) string {
	for _, c := range doubleQuoteSpecialChars {
		escaped := "\\" + string(c)
		switch c {
		case '\n':
			escaped = `\n`
		case '\r':
			escaped = `\r`
		}
		value = strings.ReplaceAll(value, string(c), escaped)
	}
	return value
}

// Decode reads a flat bundle in format f. Scalar JSON and YAML values are
// converted to strings; nested values are rejected.
func Decode(r io.Reader, f Format) (vaultenv.Bundle, error) {
	switch f {
	case Env:
		envs, err := godotenv.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("invalid dotenv input: %w", err)
		}
		return vaultenv.Bundle(envs), nil
	case JSON:
		var raw map[string]interface{}
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid json input: %w", err)
		}
		return flatten(raw)
	case YAML:
		var raw map[string]interface{}
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("invalid yaml input: %w", err)
		}
		return flatten(raw)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, f)
	}
}

func flatten(raw map[string]interface{}) (vaultenv.Bundle, error) {
	bundle := make(vaultenv.Bundle, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			bundle[k] = val
		case json.Number:
			bundle[k] = val.String()
		case nil:
			bundle[k] = ""
		case map[string]interface{}, []interface{}:
			return nil, fmt.Errorf("value of %q is not a scalar", k)
		default:
			bundle[k] = fmt.Sprint(val)
		}
	}
	return bundle, nil
}
