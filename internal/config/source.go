package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// source resolves a key from the environment first, then from the optional config file.
type source struct {
	file map[string]string
}

func (s *source) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if s != nil {
		if value, ok := s.file[key]; ok && value != "" {
			return value
		}
	}
	return defaultValue
}

func (s *source) getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(s.get(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return b
}

func (s *source) getInt(key string, defaultValue int) int {
	i, err := strconv.Atoi(s.get(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return i
}

func (s *source) getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s.get(key, defaultValue.String()))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func (s *source) getList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s.get(key, defaultValue), func(r rune) bool { return r == ',' || r == ' ' }) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
