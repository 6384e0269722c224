package domain

import (
	"encoding/hex"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

// ToolchainKind identifies a family of native compilers.
type ToolchainKind int

const (
	// ToolchainUnknown requests auto-detection from the environment.
	ToolchainUnknown ToolchainKind = iota
	ToolchainGNU
	ToolchainLLVM
	ToolchainAppleLLVM
	ToolchainVisualStudio
	ToolchainVisualStudioLLVM
	ToolchainMingwGNU
	ToolchainMingwLLVM
	ToolchainIntelClassic
	ToolchainIntelLLVM
	ToolchainEmscripten
)

var toolchainKindNames = [...]string{
	ToolchainUnknown:          "unknown",
	ToolchainGNU:              "gnu",
	ToolchainLLVM:             "llvm",
	ToolchainAppleLLVM:        "apple-llvm",
	ToolchainVisualStudio:     "vs",
	ToolchainVisualStudioLLVM: "vs-llvm",
	ToolchainMingwGNU:         "mingw-gnu",
	ToolchainMingwLLVM:        "mingw-llvm",
	ToolchainIntelClassic:     "intel-classic",
	ToolchainIntelLLVM:        "intel-llvm",
	ToolchainEmscripten:       "emscripten",
}

var toolchainKindAliases = map[string]ToolchainKind{
	"":              ToolchainUnknown,
	"auto":          ToolchainUnknown,
	"unknown":       ToolchainUnknown,
	"gnu":           ToolchainGNU,
	"gcc":           ToolchainGNU,
	"llvm":          ToolchainLLVM,
	"clang":         ToolchainLLVM,
	"apple-llvm":    ToolchainAppleLLVM,
	"apple-clang":   ToolchainAppleLLVM,
	"vs":            ToolchainVisualStudio,
	"msvc":          ToolchainVisualStudio,
	"vs-llvm":       ToolchainVisualStudioLLVM,
	"clang-cl":      ToolchainVisualStudioLLVM,
	"mingw":         ToolchainMingwGNU,
	"mingw-gnu":     ToolchainMingwGNU,
	"mingw-llvm":    ToolchainMingwLLVM,
	"intel-classic": ToolchainIntelClassic,
	"icc":           ToolchainIntelClassic,
	"intel-llvm":    ToolchainIntelLLVM,
	"icx":           ToolchainIntelLLVM,
	"emscripten":    ToolchainEmscripten,
	"emcc":          ToolchainEmscripten,
}

// ParseToolchainKind parses a toolchain name or one of its aliases.
func ParseToolchainKind(s string) (ToolchainKind, error) {
	kind, ok := toolchainKindAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return ToolchainUnknown, zerr.With(ErrUnknownToolchainKind, "toolchain", s)
	}
	return kind, nil
}

// ToolchainKinds returns every concrete kind in declaration order.
func ToolchainKinds() []ToolchainKind {
	kinds := make([]ToolchainKind, 0, len(toolchainKindNames)-1)
	for k := ToolchainGNU; k <= ToolchainEmscripten; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

func (k ToolchainKind) String() string {
	if k < 0 || int(k) >= len(toolchainKindNames) {
		return "unknown"
	}
	return toolchainKindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k ToolchainKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ToolchainKind) UnmarshalText(text []byte) error {
	parsed, err := ParseToolchainKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ToolchainDescriptor describes a resolved toolchain.
// It is immutable once returned by a resolver and is shared by pointer.
type ToolchainDescriptor struct {
	Kind     ToolchainKind
	CC       string
	CXX      string
	Linker   string
	Archiver string
	Version  string
	Arch     string
	Profile  FlagProfile
}

// Identity returns a stable digest of everything that makes two toolchains produce different output.
func (d *ToolchainDescriptor) Identity() string {
	h := xxhash.New()
	for _, part := range []string{d.Kind.String(), d.CC, d.CXX, d.Linker, d.Archiver, d.Version, d.Arch} {
		_, _ = h.WriteString(part)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// CompilerFor returns the driver used for a source file.
func (d *ToolchainDescriptor) CompilerFor(source string) string {
	if IsCSource(source) {
		return d.CC
	}
	return d.CXX
}

// IsCSource reports whether path is a plain C translation unit.
func IsCSource(path string) bool {
	return strings.HasSuffix(path, ".c")
}
