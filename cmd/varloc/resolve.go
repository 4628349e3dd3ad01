package main

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/varloc/varloc/internal/blat"
	"github.com/varloc/varloc/internal/config"
	"github.com/varloc/varloc/internal/datasource/assembly"
	"github.com/varloc/varloc/internal/datasource/genedb"
	"github.com/varloc/varloc/internal/datasource/namecheck"
	"github.com/varloc/varloc/internal/datasource/snpdb"
	"github.com/varloc/varloc/internal/datasource/vep"
	"github.com/varloc/varloc/internal/genome"
	"github.com/varloc/varloc/internal/hgvs"
	"github.com/varloc/varloc/internal/mapper"
	"github.com/varloc/varloc/internal/remote"
	"github.com/varloc/varloc/internal/resolve"
	"github.com/varloc/varloc/internal/store"
)

const (
	defaultNameCheckURL = "https://mutalyzer.nl/name-checker"
	defaultMapperURL    = "https://mutalyzer.nl/api/position-converter"
	defaultVEPURL       = "https://rest.ensembl.org/vep/human/id"
	defaultSNPTrack     = "snp151"
)

func newResolveCmd(verbose *bool) *cobra.Command {
	var (
		inputFile  string
		transcript string
		refType    string
		geneHint   string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [variants...]",
		Short: "Resolve variant names to genomic coordinates",
		Example: `  varloc resolve "NM_006446.4:c.1198T>G"
  varloc resolve rs113488022
  varloc resolve --transcript NM_1 --ref-type c "1387C>T/A"
  varloc resolve --input variants.txt --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(*verbose)
			if err != nil {
				return err
			}
			defer logger.Sync()

			inputs := args
			if inputFile != "" {
				fromFile, err := readVariantList(inputFile)
				if err != nil {
					return err
				}
				inputs = append(inputs, fromFile...)
			}
			if len(inputs) == 0 {
				return fmt.Errorf("no variants given; pass them as arguments or with --input")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			r, closer, err := buildResolver(cfg, logger)
			if err != nil {
				return err
			}
			defer closer()

			opts := resolve.Options{
				Transcript: transcript,
				RefType:    hgvs.CoordType(refType),
				GeneHint:   geneHint,
			}
			results, err := r.ResolveAll(inputs, opts)
			if err != nil {
				return err
			}
			return writeResults(cmd.OutOrStdout(), inputs, results, asJSON)
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "file with one variant per line")
	cmd.Flags().StringVar(&transcript, "transcript", "", "transcript accession for names that lack one")
	cmd.Flags().StringVar(&refType, "ref-type", "", "coordinate tag for names that lack one: c or g")
	cmd.Flags().StringVar(&geneHint, "gene", "", "gene symbol for records annotating several genes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "JSON output, one object per input")

	return cmd
}

// buildResolver wires the full cascade from the configuration. The second
// return closes what needs closing.
func buildResolver(cfg *config.Config, logger *zap.Logger) (*resolve.Resolver, func(), error) {
	files, err := store.NewFiles(cfg.CacheDir)
	if err != nil {
		return nil, nil, err
	}

	entrez := remote.NewEntrez(cfg.Email)
	entrez.SetLogger(logger)

	seqs, err := genome.NewSequenceStore(entrez, files)
	if err != nil {
		return nil, nil, err
	}
	seqs.SetLogger(logger)

	lovd := remote.NewLOVD()
	lovd.SetLogger(logger)
	genes := genedb.NewSource(lovd, files)
	genes.SetLogger(logger)
	if err := genes.EnsureCrossRef(lovd.BulkGenes); err != nil {
		return nil, nil, fmt.Errorf("gene cross-reference table: %w", err)
	}

	checker := namecheck.NewChecker(defaultNameCheckURL, files)
	checker.SetLogger(logger)

	snps := snpdb.NewSource(remote.NewUCSC(cfg.Genome, defaultSNPTrack))
	snps.SetLogger(logger)

	predictor := vep.NewSource(defaultVEPURL)
	predictor.SetLogger(logger)

	asm := assembly.NewSource(entrez)
	asm.SetLogger(logger)

	coding := mapper.New(mapper.NewRemoteBackend(defaultMapperURL, cfg.Genome))
	coding.SetLogger(logger)

	search := blat.NewClient(cfg.Genome, files)
	search.SetLogger(logger)
	aligner := resolve.NewAlignmentResolver(seqs, entrez, search)
	aligner.SetLogger(logger)

	deps := resolve.Deps{
		Parser:    newLoggedParser(logger),
		Corrector: newLoggedCorrector(logger),
		Mapper:    coding,
		Assembly:  asm,
		GeneDB:    genes,
		NameCheck: checker,
		SNPDB:     snps,
		Predictor: predictor,
		Aligner:   aligner,
	}

	// The local fast path needs the downloaded transcript table and
	// genome sequence; without them the cascade skips straight to the
	// remote strategies.
	if local, err := buildLocalConverter(cfg, logger); err != nil {
		logger.Info("local fast path unavailable", zap.Error(err))
	} else {
		deps.Local = local
	}

	r := resolve.New(cfg.Genome, deps)
	r.SetLogger(logger)

	closer := func() {}
	dbPath := filepath.Join(cfg.CacheDir, "resolved.duckdb")
	if db, err := store.OpenDB(dbPath); err != nil {
		logger.Warn("resolved-record cache unavailable", zap.Error(err))
	} else {
		r.SetCache(db)
		closer = func() { db.Close() }
	}

	return r, closer, nil
}

func newLoggedParser(logger *zap.Logger) *hgvs.StrictParser {
	p := hgvs.NewStrictParser()
	p.SetLogger(logger)
	return p
}

func newLoggedCorrector(logger *zap.Logger) *hgvs.Corrector {
	c := hgvs.NewCorrector()
	c.SetLogger(logger)
	return c
}

// buildLocalConverter loads the downloaded transcript table and genome
// FASTA for the configured build.
func buildLocalConverter(cfg *config.Config, logger *zap.Logger) (*genome.Converter, error) {
	dir := filepath.Join(cfg.CacheDir, cfg.Genome)

	table, err := openMaybeGzip(filepath.Join(dir, "refGene.txt.gz"))
	if err != nil {
		return nil, err
	}
	defer table.Close()
	index, err := genome.LoadTranscripts(table)
	if err != nil {
		return nil, fmt.Errorf("load transcript table: %w", err)
	}

	fasta, err := openMaybeGzip(filepath.Join(dir, cfg.Genome+".fa.gz"))
	if err != nil {
		return nil, err
	}
	defer fasta.Close()
	chroms, err := genome.ReadFASTA(fasta)
	if err != nil {
		return nil, fmt.Errorf("load genome sequence: %w", err)
	}
	logger.Info("local fast path ready",
		zap.Int("transcripts", len(index)),
		zap.Int("chromosomes", len(chroms)))

	conv := genome.NewConverter(genome.MapReference(chroms), index.Get)
	conv.SetLogger(logger)
	return conv, nil
}

// openMaybeGzip opens a file, transparently ungzipping .gz paths. The
// returned closer closes both readers.
func openMaybeGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &gzipFile{gz: gz, f: f}, nil
}

type gzipFile struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipFile) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipFile) Close() error {
	gzErr := g.gz.Close()
	if err := g.f.Close(); err != nil {
		return err
	}
	return gzErr
}

func readVariantList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, scanner.Err()
}

// jsonResult is one input's resolution in JSON output.
type jsonResult struct {
	Input   string            `json:"input"`
	Records []*resolve.Record `json:"records,omitempty"`
}

func writeResults(w io.Writer, inputs []string, results [][]*resolve.Record, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		for i, input := range inputs {
			if err := enc.Encode(jsonResult{Input: input, Records: results[i]}); err != nil {
				return err
			}
		}
		return nil
	}

	for i, input := range inputs {
		if len(results[i]) == 0 {
			fmt.Fprintf(w, "%s\tno result\n", input)
			continue
		}
		for _, rec := range results[i] {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
				input, rec.Chrom, rec.Offset, rec.Ref, rec.Alt(), rec.Genome, rec.Source)
		}
	}
	return nil
}
