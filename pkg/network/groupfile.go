package network

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// DefaultGroupFile is the standard location iproute2 and this
// subsystem both read device group membership from.
const DefaultGroupFile = "/etc/iproute2/group"

// LoadGroupFile parses an iproute2-style group file: whitespace-
// delimited "id name" pairs, "#"-prefixed full-line comments, blank
// lines skipped. It is loaded once at process startup; the resulting
// id->name map lets the Configuration Resolver accept either a numeric
// group id or its name in "group <name>" keys.
func LoadGroupFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("network: open group file %s: %w", path, err)
	}
	defer f.Close()

	groups := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		groups[fields[0]] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("network: read group file %s: %w", path, err)
	}
	return groups, nil
}
