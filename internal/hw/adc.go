package hw

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// readIIO reads one integer sample from an IIO sysfs raw file.
func readIIO(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read adc: %w", err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse adc %q: %w", strings.TrimSpace(string(data)), err)
	}
	return v, nil
}
