package headersync

import (
	"context"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
)

// HeaderSource yields the headers of a remote chain in ascending height. Next returns io.EOF once the
// source is exhausted.
type HeaderSource interface {
	Next(ctx context.Context) (*model.BlockHeader, error)
}

// SliceHeaderSource serves headers already held in memory.
type SliceHeaderSource struct {
	headers []*model.BlockHeader
	next    int
}

func NewSliceHeaderSource(headers []*model.BlockHeader) *SliceHeaderSource {
	return &SliceHeaderSource{headers: headers}
}

func (s *SliceHeaderSource) Next(ctx context.Context) (*model.BlockHeader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.next >= len(s.headers) {
		return nil, io.EOF
	}

	h := s.headers[s.next]
	s.next++

	return h, nil
}

// JSONHeaderSource streams headers from a JSON array without loading the whole document.
type JSONHeaderSource struct {
	iter *jsoniter.Iterator
	done bool
}

func NewJSONHeaderSource(r io.Reader) *JSONHeaderSource {
	return &JSONHeaderSource{
		iter: jsoniter.Parse(jsoniter.ConfigCompatibleWithStandardLibrary, r, 64*1024),
	}
}

func (s *JSONHeaderSource) Next(ctx context.Context) (*model.BlockHeader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.done {
		return nil, io.EOF
	}

	more := s.iter.ReadArray()
	if err := s.iter.Error; err != nil && err != io.EOF {
		s.done = true
		return nil, errors.NewProcessingError("invalid header json", err)
	}

	if !more {
		s.done = true
		return nil, io.EOF
	}

	header := &model.BlockHeader{}
	s.iter.ReadVal(header)

	if err := s.iter.Error; err != nil && err != io.EOF {
		s.done = true
		return nil, errors.NewProcessingError("invalid header json", err)
	}

	return header, nil
}
