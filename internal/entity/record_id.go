package entity

import (
	"path/filepath"

	"github.com/google/uuid"
)

var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("jobs-etl/record"))

// NewRecordID derives a stable id from the source file name and the row's
// staging stem, so re-running a pipeline over the same source yields the same ids.
func NewRecordID(source, row string) string {
	return uuid.NewSHA1(recordNamespace, []byte(filepath.Base(source)+"#"+row)).String()
}
