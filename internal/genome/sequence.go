// Package genome provides local reference sequence access: fetched sequence
// records, the alignment window construction, the transcript table, and the
// direct HGVS-to-VCF converter.
package genome

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/varloc/varloc/internal/store"
)

// Fetcher retrieves a raw sequence record (FASTA text) for an accession from
// a remote authority.
type Fetcher interface {
	FetchSequence(accession string) (string, error)
}

// memCacheSize bounds the number of full sequence records held in memory.
// Genomic records can run to megabytes, so keep this small.
const memCacheSize = 16

// SequenceStore serves reference sequences by accession. Lookups go memory
// cache, then disk cache, then the remote fetcher; fetched records are
// persisted to disk using write-if-absent.
type SequenceStore struct {
	fetcher Fetcher
	files   *store.Files
	mem     *lru.Cache[string, string]
	logger  *zap.Logger
}

// NewSequenceStore creates a sequence store backed by a fetcher and a local
// file cache.
func NewSequenceStore(fetcher Fetcher, files *store.Files) (*SequenceStore, error) {
	mem, err := lru.New[string, string](memCacheSize)
	if err != nil {
		return nil, err
	}
	return &SequenceStore{
		fetcher: fetcher,
		files:   files,
		mem:     mem,
		logger:  zap.NewNop(),
	}, nil
}

// SetLogger sets the logger for fetch and cache messages.
func (s *SequenceStore) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Sequence returns the plain nucleotide sequence for an accession, with
// FASTA comment lines stripped.
func (s *SequenceStore) Sequence(accession string) (string, error) {
	if seq, ok := s.mem.Get(accession); ok {
		return seq, nil
	}

	key := accession + ".fasta"
	if s.files.Exists(store.ConcernSequences, key) {
		raw, err := s.files.Read(store.ConcernSequences, key)
		if err != nil {
			return "", fmt.Errorf("read cached sequence: %w", err)
		}
		seq := StripFASTA(string(raw))
		s.mem.Add(accession, seq)
		return seq, nil
	}

	s.logger.Info("no local sequence record, fetching",
		zap.String("accession", accession))
	raw, err := s.fetcher.FetchSequence(accession)
	if err != nil {
		return "", fmt.Errorf("fetch sequence %s: %w", accession, err)
	}

	if err := s.files.Write(store.ConcernSequences, key, []byte(raw)); err != nil {
		return "", fmt.Errorf("cache sequence %s: %w", accession, err)
	}

	seq := StripFASTA(raw)
	s.mem.Add(accession, seq)
	return seq, nil
}

// StripFASTA joins the sequence lines of a FASTA record, dropping comment
// lines and whitespace.
func StripFASTA(raw string) string {
	var b strings.Builder
	for _, line := range strings.Split(raw, "\n") {
		if strings.Contains(line, ">") {
			continue
		}
		b.WriteString(strings.TrimSpace(line))
	}
	return b.String()
}

// ReadFASTA reads a multi-record FASTA stream into a name-to-sequence map.
// The record name is the header token before the first space.
func ReadFASTA(r io.Reader) (map[string]string, error) {
	sequences := make(map[string]string)
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var name string
	var seq strings.Builder
	flush := func() {
		if name != "" {
			sequences[name] = seq.String()
		}
		seq.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ">") {
			flush()
			header := strings.TrimPrefix(line, ">")
			if idx := strings.IndexByte(header, ' '); idx != -1 {
				header = header[:idx]
			}
			name = header
			continue
		}
		seq.WriteString(strings.TrimSpace(line))
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan FASTA: %w", err)
	}
	return sequences, nil
}
