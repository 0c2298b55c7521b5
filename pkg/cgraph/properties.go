package cgraph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Properties holds metadata describing a stored graph, such as the number of nodes and arcs.
// Codecs write them next to the graph, see [PropertiesExtension].
type Properties map[string]string

// Names of properties written by [GapCodec].
const (
	PropNodes       = "nodes"
	PropArcs        = "arcs"
	PropCompression = "compression"
	PropVersion     = "version"
	PropBytes       = "bytes"
	PropBitsPerLink = "bitsperlink"
	PropGraphClass  = "graphclass"
)

var errPropertyLine = errors.New("malformed property line")

// Int parses the property with the given key as an integer.
func (props Properties) Int(key string) (int64, error) {
	value, ok := props[key]
	if !ok {
		return 0, fmt.Errorf("property %q not set", key)
	}
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("property %q: %w", key, err)
	}
	return i, nil
}

// WriteTo writes props to w, one "key=value" line per property in ascending key order.
func (props Properties) WriteTo(w io.Writer) (int64, error) {
	keys := maps.Keys(props)
	slices.Sort(keys)

	var total int64
	for _, key := range keys {
		n, err := fmt.Fprintf(w, "%s=%s\n", key, props[key])
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ReadProperties reads properties written by [Properties.WriteTo].
// Empty lines and lines starting with "#" are ignored.
func ReadProperties(r io.Reader) (Properties, error) {
	props := make(Properties)

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fmt.Errorf("%w: line %d", errPropertyLine, line)
		}
		props[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return props, nil
}

// LoadProperties reads properties from the file at path.
func LoadProperties(path string) (props Properties, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if e2 := file.Close(); e2 != nil && err == nil {
			err = e2
		}
	}()

	return ReadProperties(file)
}

// storeProperties writes props to the file at path.
func storeProperties(path string, props Properties) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if e2 := file.Close(); e2 != nil && err == nil {
			err = e2
		}
	}()

	_, err = props.WriteTo(file)
	return err
}
