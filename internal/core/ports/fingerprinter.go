package ports

import "go.trai.ch/anvil/internal/core/domain"

// Fingerprinter summarises the inputs of a target.
//
//go:generate mockgen -source=fingerprinter.go -destination=mocks/mock_fingerprinter.go -package=mocks
type Fingerprinter interface {
	// Fingerprint walks the inputs of target relative to root, skipping what lies inside
	// exclude when expanding directories. salt is mixed into the digest in order.
	Fingerprint(
		root string,
		target *domain.Target,
		mode domain.FingerprintMode,
		salt []string,
		exclude domain.PathSet,
	) (domain.Fingerprint, error)

	// FingerprintFiles digests exactly files, relative to root unless absolute, together with salt.
	FingerprintFiles(root string, files []string, mode domain.FingerprintMode, salt []string) (domain.Fingerprint, error)
}
