package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/refinery/core"
)

// Key prefixes for different data types
const (
	segmentPrefix         = "segrec"
	segmentDatasetPrefix  = "segds"
	segmentDocumentPrefix = "segdoc"
	segmentIDSeq          = "segrecseq"
	snapshotPrefix        = "snap"
	snapshotStepPrefix    = "snapst"
)

// makeSegmentKey generates a key for a segment by ID.
func makeSegmentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", segmentPrefix, id))
}

// makeDatasetKey generates a composite key for the dataset index.
// Format: prefix:datasetID\x00position:id
// The NUL byte terminates the dataset ID so "ds1" never matches keys of
// "ds10". Position and ID are BigEndian so lexicographic iteration yields
// segments in position order.
func makeDatasetKey(datasetID string, position int, id core.ID) []byte {
	return makeScopedKey(segmentDatasetPrefix, datasetID, position, id)
}

// makePartialDatasetKey generates the iteration prefix for a dataset.
func makePartialDatasetKey(datasetID string) []byte {
	return makePartialScopedKey(segmentDatasetPrefix, datasetID)
}

// makeDocumentKey generates a composite key for the document index.
// Format: prefix:documentID\x00position:id
func makeDocumentKey(documentID string, position int, id core.ID) []byte {
	return makeScopedKey(segmentDocumentPrefix, documentID, position, id)
}

// makePartialDocumentKey generates the iteration prefix for a document.
func makePartialDocumentKey(documentID string) []byte {
	return makePartialScopedKey(segmentDocumentPrefix, documentID)
}

func makeScopedKey(prefix, scope string, position int, id core.ID) []byte {
	base := makePartialScopedKey(prefix, scope)
	buf := make([]byte, len(base)+16)
	offset := copy(buf, base)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(int64(position)))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

func makePartialScopedKey(prefix, scope string) []byte {
	buf := make([]byte, 0, len(prefix)+len(scope)+2)
	buf = append(buf, prefix...)
	buf = append(buf, ':')
	buf = append(buf, scope...)
	buf = append(buf, 0)
	return buf
}

// makeSnapshotKey generates a key for a rollback snapshot by execution ID.
func makeSnapshotKey(executionID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", snapshotPrefix, executionID))
}

// makeSnapshotStepKey generates a composite key for the step-type index.
// Format: prefix:stepType\x00executionID
func makeSnapshotStepKey(stepType, executionID string) []byte {
	base := makePartialSnapshotStepKey(stepType)
	return append(base, executionID...)
}

// makePartialSnapshotStepKey generates the iteration prefix for a step type.
func makePartialSnapshotStepKey(stepType string) []byte {
	return makePartialScopedKey(snapshotStepPrefix, stepType)
}
