package utils

import (
	"bufio"
	"github.com/twmb/murmur3"
	"os"
	"strings"
)

func HashString(s string) uint64 {
	return HashBytes([]byte(s))
}

// HashBytes hashes the parts in order with a zero byte between them, so that
// ("ab", "c") and ("a", "bc") do not collide.
func HashBytes(parts ...[]byte) uint64 {
	hash := murmur3.New64()
	for i, b := range parts {
		if i > 0 {
			_, _ = hash.Write([]byte{0})
		}
		if _, err := hash.Write(b); err != nil {
			panic(err)
		}
	}
	return hash.Sum64()
}

// ReadList reads non-empty, trimmed lines. Lines starting with '#' are comments.
func ReadList(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)

	var result []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		result = append(result, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
