package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persisted records. Field order is the wire
// order; append new fields at the end. Timestamps are Unix microseconds.
var (
	IDMUS                   = idMUS{}
	TimeMUS                 = timeMicroMUS{}
	PatternMUS              = patternMUS{}
	DocumentRecordMUS       = documentRecordMUS{}
	ClassificationRecordMUS = classificationRecordMUS{}
	PatternSetMUS           = patternSetMUS{}

	embeddingMUS = ord.NewSliceSer[float32](raw.Float32)
	keywordsMUS  = ord.NewSliceSer[string](ord.String)
	patternsMUS  = ord.NewSliceSer[Pattern](PatternMUS)
)

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type timeMicroMUS struct{}

func (timeMicroMUS) Marshal(v time.Time, bs []byte) int {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func (timeMicroMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func (timeMicroMUS) Size(v time.Time) int {
	return varint.Int64.Size(v.UnixMicro())
}

func (timeMicroMUS) Skip(bs []byte) (int, error) {
	return varint.Int64.Skip(bs)
}

// unmarshalStrings decodes consecutive ord strings into dst, returning the
// number of bytes consumed.
func unmarshalStrings(bs []byte, dst ...*string) (n int, err error) {
	var n1 int
	for _, p := range dst {
		*p, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func marshalStrings(bs []byte, src ...string) (n int) {
	for _, s := range src {
		n += ord.String.Marshal(s, bs[n:])
	}
	return
}

func sizeStrings(src ...string) (size int) {
	for _, s := range src {
		size += ord.String.Size(s)
	}
	return
}

func skipStrings(bs []byte, count int) (n int, err error) {
	var n1 int
	for range count {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

type patternMUS struct{}

func (patternMUS) Marshal(v Pattern, bs []byte) (n int) {
	n = ord.String.Marshal(v.Name, bs)
	n += keywordsMUS.Marshal(v.Keywords, bs[n:])
	return n + ord.String.Marshal(v.Evidence, bs[n:])
}

func (patternMUS) Unmarshal(bs []byte) (v Pattern, n int, err error) {
	var n1 int
	v.Name, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Keywords, n1, err = keywordsMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if v.Keywords == nil {
		v.Keywords = []string{}
	}
	v.Evidence, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (patternMUS) Size(v Pattern) int {
	return ord.String.Size(v.Name) + keywordsMUS.Size(v.Keywords) + ord.String.Size(v.Evidence)
}

func (patternMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	n1, err = keywordsMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	return
}

type documentRecordMUS struct{}

func documentStrings(v DocumentRecord) []string {
	return []string{v.Title, v.Theme, v.Source, v.PaperType, v.CountryOrganisation,
		v.Abstract, v.URL, v.Level1Consensus, v.Level1Reason, v.Level2Consensus, v.Level2Reason}
}

func (documentRecordMUS) Marshal(v DocumentRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += marshalStrings(bs[n:], documentStrings(v)...)
	n += embeddingMUS.Marshal(v.Embedding, bs[n:])
	n += varint.Int64.Marshal(int64(v.EmbeddingStatus), bs[n:])
	n += TimeMUS.Marshal(v.InsertedAt, bs[n:])
	return n + TimeMUS.Marshal(v.UpdatedAt, bs[n:])
}

func (documentRecordMUS) Unmarshal(bs []byte) (v DocumentRecord, n int, err error) {
	var n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	n1, err = unmarshalStrings(bs[n:], &v.Title, &v.Theme, &v.Source, &v.PaperType,
		&v.CountryOrganisation, &v.Abstract, &v.URL, &v.Level1Consensus, &v.Level1Reason,
		&v.Level2Consensus, &v.Level2Reason)
	n += n1
	if err != nil {
		return
	}
	v.Embedding, n1, err = embeddingMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if len(v.Embedding) == 0 {
		v.Embedding = nil
	}
	var status int64
	status, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.EmbeddingStatus = EmbeddingStatus(status)
	v.InsertedAt, n1, err = TimeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = TimeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (documentRecordMUS) Size(v DocumentRecord) int {
	return IDMUS.Size(v.Id) +
		sizeStrings(documentStrings(v)...) +
		embeddingMUS.Size(v.Embedding) +
		varint.Int64.Size(int64(v.EmbeddingStatus)) +
		TimeMUS.Size(v.InsertedAt) +
		TimeMUS.Size(v.UpdatedAt)
}

func (documentRecordMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	n1, err = skipStrings(bs[n:], 11)
	n += n1
	if err != nil {
		return
	}
	n1, err = embeddingMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for range 3 {
		n1, err = varint.Int64.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

// Classification records store the UUID in its canonical string form.
type classificationRecordMUS struct{}

func (classificationRecordMUS) Marshal(v ClassificationRecord, bs []byte) (n int) {
	n = marshalStrings(bs, v.Id.String(), v.File, string(v.Mode), v.Result.Classification)
	n += keywordsMUS.Marshal(v.Result.Keywords, bs[n:])
	n += ord.String.Marshal(v.Result.Reason, bs[n:])
	n += ord.Bool.Marshal(v.Summarized, bs[n:])
	return n + TimeMUS.Marshal(v.ClassifiedAt, bs[n:])
}

func (classificationRecordMUS) Unmarshal(bs []byte) (v ClassificationRecord, n int, err error) {
	var (
		n1       int
		id, mode string
		parseErr error
	)
	n, err = unmarshalStrings(bs, &id, &v.File, &mode, &v.Result.Classification)
	if err != nil {
		return
	}
	if v.Id, parseErr = uuid.Parse(id); parseErr != nil {
		err = parseErr
		return
	}
	v.Mode = ClassificationMode(mode)
	v.Result.Keywords, n1, err = keywordsMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if v.Result.Keywords == nil {
		v.Result.Keywords = []string{}
	}
	v.Result.Reason, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Summarized, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ClassifiedAt, n1, err = TimeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (classificationRecordMUS) Size(v ClassificationRecord) int {
	return sizeStrings(v.Id.String(), v.File, string(v.Mode), v.Result.Classification) +
		keywordsMUS.Size(v.Result.Keywords) +
		ord.String.Size(v.Result.Reason) +
		ord.Bool.Size(v.Summarized) +
		TimeMUS.Size(v.ClassifiedAt)
}

func (classificationRecordMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = skipStrings(bs, 4)
	if err != nil {
		return
	}
	n1, err = keywordsMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.Bool.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = TimeMUS.Skip(bs[n:])
	n += n1
	return
}

// A pattern set's failure is written as a presence flag followed by the
// error and raw response when set.
type patternSetMUS struct{}

func (patternSetMUS) Marshal(v PatternSet, bs []byte) (n int) {
	n = patternsMUS.Marshal(v.ExclusionPatterns, bs)
	n += patternsMUS.Marshal(v.InclusionPatterns, bs[n:])
	n += ord.Bool.Marshal(v.Failure != nil, bs[n:])
	if v.Failure != nil {
		n += marshalStrings(bs[n:], v.Failure.Error, v.Failure.RawResponse)
	}
	return n + TimeMUS.Marshal(v.CreatedAt, bs[n:])
}

func (patternSetMUS) Unmarshal(bs []byte) (v PatternSet, n int, err error) {
	var (
		n1         int
		hasFailure bool
	)
	v.ExclusionPatterns, n, err = patternsMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	v.InclusionPatterns, n1, err = patternsMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if v.ExclusionPatterns == nil {
		v.ExclusionPatterns = []Pattern{}
	}
	if v.InclusionPatterns == nil {
		v.InclusionPatterns = []Pattern{}
	}
	hasFailure, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if hasFailure {
		failure := &ExtractionFailure{}
		n1, err = unmarshalStrings(bs[n:], &failure.Error, &failure.RawResponse)
		n += n1
		if err != nil {
			return
		}
		v.Failure = failure
	}
	v.CreatedAt, n1, err = TimeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (patternSetMUS) Size(v PatternSet) (size int) {
	size = patternsMUS.Size(v.ExclusionPatterns) +
		patternsMUS.Size(v.InclusionPatterns) +
		ord.Bool.Size(v.Failure != nil)
	if v.Failure != nil {
		size += sizeStrings(v.Failure.Error, v.Failure.RawResponse)
	}
	return size + TimeMUS.Size(v.CreatedAt)
}

func (patternSetMUS) Skip(bs []byte) (n int, err error) {
	var (
		n1         int
		hasFailure bool
	)
	for range 2 {
		n1, err = patternsMUS.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	hasFailure, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if hasFailure {
		n1, err = skipStrings(bs[n:], 2)
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = TimeMUS.Skip(bs[n:])
	n += n1
	return
}
