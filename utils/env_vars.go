package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

func parseEnv[T any](envVar string, stringValue string) T {
	var value T
	var err error

	switch ptr := any(&value).(type) {
	case *string:
		*ptr = stringValue
	case *int:
		*ptr, err = strconv.Atoi(stringValue)
	case *bool:
		*ptr, err = strconv.ParseBool(stringValue)
	case *time.Duration:
		*ptr, err = time.ParseDuration(stringValue)
	default:
		panic(fmt.Sprintf("unsupported env var type for %s", envVar))
	}

	if err != nil {
		log.Fatalf("environment variable %s is not valid: %q (%v)", envVar, stringValue, err)
	}
	return value
}

func GetEnv[T any](envVar string, defaultValue T) T {
	stringValue, ok := os.LookupEnv(envVar)
	if !ok || stringValue == "" {
		return defaultValue
	}
	return parseEnv[T](envVar, stringValue)
}

func GetRequiredEnv[T any](envVar string) T {
	stringValue, ok := os.LookupEnv(envVar)
	if !ok || stringValue == "" {
		log.Fatalf("%s environment variable is required", envVar)
	}
	return parseEnv[T](envVar, stringValue)
}
