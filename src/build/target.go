package build

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"sort"
	"strings"
)

// TargetKind discriminates Target.
type TargetKind int

const (
	KindSwift  TargetKind = iota // interface-only module
	KindClang                    // native C-family module with public headers
	KindBinary                   // pre-built binary artifact
)

func (k TargetKind) String() string {
	switch k {
	case KindSwift:
		return "swift"
	case KindClang:
		return "clang"
	case KindBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// ClangModule is the native-code part of a clang target.
type ClangModule struct {
	// PublicHeaders are absolute paths of the headers the target declares.
	PublicHeaders []string
	// IncludeRoot is the target's public include directory.
	IncludeRoot string
}

// BinaryArtifact is a pre-built binary target.
type BinaryArtifact struct {
	// Path is the artifact directory, typically an .xcframework.
	Path string
}

// Target is one buildable unit of the package. Only the variant matching
// Kind is populated; use Clang and Binary to reach it.
type Target struct {
	Name string
	Kind TargetKind

	clang  *ClangModule
	binary *BinaryArtifact
}

// NewSwiftTarget returns an interface-only target.
func NewSwiftTarget(name string) Target {
	return Target{Name: C99Name(name), Kind: KindSwift}
}

// NewClangTarget returns a native-code target.
func NewClangTarget(name string, mod ClangModule) Target {
	return Target{Name: C99Name(name), Kind: KindClang, clang: &mod}
}

// NewBinaryTarget returns a pre-built binary target.
func NewBinaryTarget(name, artifactPath string) Target {
	return Target{Name: C99Name(name), Kind: KindBinary, binary: &BinaryArtifact{Path: artifactPath}}
}

// Clang returns the native-code module, or nil for other kinds.
func (t Target) Clang() *ClangModule {
	if t.Kind != KindClang {
		return nil
	}
	return t.clang
}

// Binary returns the pre-built artifact, or nil for other kinds.
func (t Target) Binary() *BinaryArtifact {
	if t.Kind != KindBinary {
		return nil
	}
	return t.binary
}

// Identifier is the build-engine target name for t's generated product:
// "<name>_<HASH>_PackageProduct".
func (t Target) Identifier() string {
	return t.Name + "_" + nameHash(t.Name) + "_PackageProduct"
}

// nameHash is the first 8 hex digits of SHA-256 over the name.
func nameHash(name string) string {
	sum := sha256.Sum256([]byte(name))
	return strings.ToUpper(hex.EncodeToString(sum[:4]))
}

// C99Name normalizes a target name into a filesystem- and module-safe
// identifier: characters outside [A-Za-z0-9_] become '_', and a leading
// digit is prefixed with '_'.
func C99Name(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// headersUnder filters headers to those inside root, returning them sorted
// and deduplicated.
func headersUnder(headers []string, root string) []string {
	if root == "" {
		return nil
	}
	root = filepath.Clean(root)
	seen := make(map[string]bool, len(headers))
	var out []string
	for _, h := range headers {
		h = filepath.Clean(h)
		rel, err := filepath.Rel(root, h)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	sort.Strings(out)
	return out
}
