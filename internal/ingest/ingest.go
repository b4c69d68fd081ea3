package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"go.uber.org/multierr"

	"zenstudio/internal/library"
	"zenstudio/internal/logging"
	"zenstudio/internal/services"
	"zenstudio/internal/story"
)

// sniffLen is the number of leading bytes the content sniffer inspects.
const sniffLen = 262

// Report summarizes an ingestion run.
type Report struct {
	Created []string
	Failed  int
}

// Ingestor feeds manifest entries into the graph and library.
type Ingestor struct {
	graph   *story.Graph
	library *library.Library
	logger  *slog.Logger
}

// New returns an ingestor.
func New(g *story.Graph, lib *library.Library, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Ingestor{graph: g, library: lib, logger: logging.NewComponentLogger(logger, "ingest")}
}

// Ingest processes every entry. Relative image paths resolve against
// baseDir. Entries that fail are marked as errors in the library and their
// errors are combined in the returned error; the rest still become
// segments.
func (i *Ingestor) Ingest(ctx context.Context, m Manifest, baseDir string) (Report, error) {
	var (
		report Report
		errs   error
	)
	for idx, entry := range m.Pages {
		if err := ctx.Err(); err != nil {
			return report, multierr.Append(errs, err)
		}
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			name = fmt.Sprintf("page-%d", idx+1)
		}
		fileID := i.library.Add(library.File{
			Name:         name,
			Status:       library.StatusProcessing,
			StageMessage: "Reading manifest entry...",
		})

		segID, err := i.ingestEntry(fileID, entry, baseDir)
		if err != nil {
			report.Failed++
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			status := library.StatusError
			msg := "Error: " + err.Error()
			if uerr := i.library.Update(fileID, library.Update{Status: &status, StageMessage: &msg}); uerr != nil {
				i.logger.WarnContext(ctx, "failed to mark library entry as errored",
					logging.String("entry", name),
					logging.String("file_id", fileID),
					logging.Error(uerr),
				)
			}
			i.logger.WarnContext(ctx, "ingest entry failed",
				logging.String("entry", name),
				logging.Error(err),
				logging.ErrorKind(err),
			)
			continue
		}
		report.Created = append(report.Created, segID)
		i.logger.InfoContext(ctx, "ingested page",
			logging.String("entry", name),
			logging.SegmentID(segID),
		)
	}
	return report, errs
}

func (i *Ingestor) ingestEntry(fileID string, entry Entry, baseDir string) (string, error) {
	text := strings.TrimSpace(entry.Text)
	if text == "" {
		return "", services.Wrap(services.ErrValidation, "ingest", "text", "entry has no text", nil)
	}
	imageURI, err := resolveImage(entry.Image, baseDir)
	if err != nil {
		return "", err
	}

	status := library.StatusAnalyzed
	msg := "Complete"
	extracted := library.Extracted{Text: text, Mood: story.NormalizeMood(entry.Mood, "Neutral")}
	if err := i.library.Update(fileID, library.Update{
		Status:       &status,
		StageMessage: &msg,
		Thumbnail:    &imageURI,
		Extracted:    &extracted,
	}); err != nil {
		return "", err
	}
	return i.graph.CreateFromIngested(story.Ingested{
		Text:     text,
		Mood:     entry.Mood,
		ImageURI: imageURI,
	}), nil
}

// FromLibrary creates a segment from an analyzed library file.
func (i *Ingestor) FromLibrary(fileID string) (string, error) {
	f, ok := i.library.Get(fileID)
	if !ok {
		return "", services.Wrap(services.ErrNotFound, "ingest", "library", "file "+fileID, nil)
	}
	if f.Status != library.StatusAnalyzed {
		return "", services.Wrap(services.ErrValidation, "ingest", "library",
			fmt.Sprintf("file %s is %s, not analyzed", f.Name, f.Status), nil)
	}
	in := story.Ingested{ImageURI: f.Thumbnail, Mood: "Neutral"}
	if f.Extracted != nil {
		in.Text = f.Extracted.Text
		if strings.TrimSpace(f.Extracted.Mood) != "" {
			in.Mood = f.Extracted.Mood
		}
	}
	return i.graph.CreateFromIngested(in), nil
}

// resolveImage returns a URI for ref. Remote and data URIs pass through;
// local paths must exist and sniff as an image.
func resolveImage(ref, baseDir string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}
	if u, err := url.Parse(ref); err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "data", "asset":
			return ref, nil
		case "file":
			ref = u.Path
		}
	}
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	path = filepath.Clean(path)
	if err := checkImage(path); err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(), nil
}

func checkImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrNotFound, "ingest", "image", path, err)
		}
		return services.Wrap(services.ErrValidation, "ingest", "image", path, err)
	}
	defer f.Close()
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return services.Wrap(services.ErrValidation, "ingest", "image", path, err)
	}
	if !filetype.IsImage(head[:n]) {
		return services.Wrap(services.ErrValidation, "ingest", "image", path+" is not an image", nil)
	}
	return nil
}
