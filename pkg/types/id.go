package types

import (
	"fmt"

	"github.com/segmentio/ksuid"
)

// GenerateImportID generates a unique import job ID with prefix
func GenerateImportID() string {
	return fmt.Sprintf("imp_%s", ksuid.New().String())
}

// GenerateOrgID generates a unique organization ID with prefix
func GenerateOrgID() string {
	return fmt.Sprintf("org_%s", ksuid.New().String())
}

// GenerateID generates a generic unique ID
func GenerateID() string {
	return ksuid.New().String()
}
