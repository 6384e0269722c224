package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Fingerprinter = (*Fingerprinter)(nil)

// Fingerprinter summarises the input files of a target.
type Fingerprinter struct {
	walker   *Walker
	resolver *Resolver
}

// NewFingerprinter creates a new Fingerprinter.
func NewFingerprinter(walker *Walker, resolver *Resolver) *Fingerprinter {
	return &Fingerprinter{walker: walker, resolver: resolver}
}

type inputFile struct {
	path string
	rel  string
	info os.FileInfo
}

// Fingerprint walks the inputs of target and digests them together with salt.
// Directory inputs skip whatever lies inside a member of exclude; files named directly are kept.
// Files are visited in sorted relative-path order, so declaration order does not matter.
// Size is the total byte count. In timestamp mode LastWrite is the newest modification time in
// whole seconds; content mode leaves it zero so that touching a file keeps the fingerprint.
func (f *Fingerprinter) Fingerprint(
	root string,
	target *domain.Target,
	mode domain.FingerprintMode,
	salt []string,
	exclude domain.PathSet,
) (domain.Fingerprint, error) {
	files, err := f.collect(root, target.Inputs(), exclude)
	if err != nil {
		return domain.Fingerprint{}, zerr.With(zerr.Wrap(err, domain.ErrFingerprintFailed.Error()), "target", target.Name.String())
	}
	return digest(files, mode, salt)
}

// FingerprintFiles digests exactly the given files together with salt, the way Fingerprint
// digests the expanded inputs of a target. Paths are relative to root unless absolute.
func (f *Fingerprinter) FingerprintFiles(root string, files []string, mode domain.FingerprintMode, salt []string) (domain.Fingerprint, error) {
	seen := make(map[string]bool, len(files))
	inputs := make([]inputFile, 0, len(files))
	for _, path := range files {
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		path = filepath.Clean(path)
		if seen[path] {
			continue
		}
		seen[path] = true
		file, err := statInput(root, path)
		if err != nil {
			return domain.Fingerprint{}, zerr.Wrap(err, domain.ErrFingerprintFailed.Error())
		}
		inputs = append(inputs, file)
	}
	sortInputs(inputs)
	return digest(inputs, mode, salt)
}

func digest(files []inputFile, mode domain.FingerprintMode, salt []string) (domain.Fingerprint, error) {
	h := xxhash.New()
	var fp domain.Fingerprint
	for _, file := range files {
		_, _ = h.WriteString(file.rel)
		_, _ = h.Write([]byte{0})

		mtime := file.info.ModTime().Unix()
		fp.Size += file.info.Size()

		switch mode {
		case domain.FingerprintContent:
			sum, err := hashFile(file.path)
			if err != nil {
				return domain.Fingerprint{}, err
			}
			_ = binary.Write(h, binary.LittleEndian, sum)
		default:
			fp.LastWrite = max(fp.LastWrite, mtime)
			_ = binary.Write(h, binary.LittleEndian, mtime)
			_ = binary.Write(h, binary.LittleEndian, file.info.Size())
		}
	}

	_, _ = h.Write([]byte{0})
	for _, s := range salt {
		_, _ = h.WriteString(s)
		_, _ = h.Write([]byte{0})
	}

	fp.Digest = fmt.Sprintf("%016x", h.Sum64())
	return fp, nil
}

func (f *Fingerprinter) collect(root string, patterns []string, exclude domain.PathSet) ([]inputFile, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	paths, err := f.resolver.ResolveInputs(patterns, root)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var files []inputFile
	add := func(path string) error {
		if seen[path] {
			return nil
		}
		seen[path] = true
		file, err := statInput(root, path)
		if err != nil {
			return err
		}
		files = append(files, file)
		return nil
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to stat input"), "path", path)
		}
		if !info.IsDir() {
			if err := add(path); err != nil {
				return nil, err
			}
			continue
		}
		for file := range f.walker.WalkFiles(path, nil, exclude) {
			if err := add(file); err != nil {
				return nil, err
			}
		}
	}

	sortInputs(files)
	return files, nil
}

func statInput(root, path string) (inputFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return inputFile{}, zerr.With(zerr.Wrap(err, "failed to stat input"), "path", path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return inputFile{path: path, rel: filepath.ToSlash(rel), info: info}, nil
}

func sortInputs(files []inputFile) {
	slices.SortFunc(files, func(a, b inputFile) int {
		return strings.Compare(a.rel, b.rel)
	})
}

// hashFile computes the xxhash of a file's content.
func hashFile(path string) (uint64, error) {
	file, err := os.Open(path) //nolint:gosec // Path comes from the project's declared inputs
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer file.Close() //nolint:errcheck // Best effort close in defer

	h := xxhash.New()
	if _, err := io.Copy(h, file); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}
	return h.Sum64(), nil
}
