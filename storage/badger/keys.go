package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/litscreen/core"
)

// Key prefixes for different data types
const (
	documentPrefix       = "docrec"
	documentOrderPrefix  = "docord"
	documentStatusPrefix = "docsta"
	documentSeq          = "docrecseq"
	classificationPrefix = "clsrec"
	classificationSeq    = "clsrecseq"
	patternSetPrefix     = "patset"
	patternSetSeq        = "patsetseq"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentOrderKey generates a key for the insertion-order index.
// Format: prefix:seq
func makeDocumentOrderKey(seq uint64) []byte {
	return appendUint64([]byte(documentOrderPrefix+":"), seq)
}

// makeDocumentStatusKey generates a composite key for the status index.
// Format: prefix:status:seq
func makeDocumentStatusKey(status core.EmbeddingStatus, seq uint64) []byte {
	return appendUint64(makePartialDocumentStatusKey(status), seq)
}

// makePartialDocumentStatusKey generates a partial key for status queries.
// Format: prefix:status:
func makePartialDocumentStatusKey(status core.EmbeddingStatus) []byte {
	return []byte(fmt.Sprintf("%s:%s:", documentStatusPrefix, status))
}

// makeClassificationKey generates a key for a classification record.
// Format: prefix:mode:seq
func makeClassificationKey(mode core.ClassificationMode, seq uint64) []byte {
	return appendUint64(makePartialClassificationKey(mode), seq)
}

// makePartialClassificationKey generates a partial key for mode queries.
func makePartialClassificationKey(mode core.ClassificationMode) []byte {
	return []byte(fmt.Sprintf("%s:%s:", classificationPrefix, mode))
}

// makePatternSetKey generates a key for a pattern set.
// Format: prefix:seq
func makePatternSetKey(seq uint64) []byte {
	return appendUint64([]byte(patternSetPrefix+":"), seq)
}

// appendUint64 writes v in BigEndian order so lexicographic sort matches numeric order.
func appendUint64(prefix []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(prefix, v)
}
