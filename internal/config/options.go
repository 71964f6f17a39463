package config

import (
	"fmt"
	"strconv"
)

func parseIntOption(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("option %s: %q is not an integer", key, v)
	}
	return n, nil
}

func parseBoolOption(key, v string) (bool, error) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("option %s: %q is not a boolean", key, v)
	}
	return b, nil
}
