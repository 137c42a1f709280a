package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrVersionNotFound = errors.New("version not found")

// Ledger is the append-only version history of one refinement session.
// Versions are never deleted or reordered; "current" is a separate pointer
// and not necessarily the last element.
type Ledger struct {
	versions []DesignVersion
	current  int
}

// NewLedger seeds the ledger with version zero from the selected option.
func NewLedger(initialImage string) *Ledger {
	return &Ledger{
		versions: []DesignVersion{{
			ID:          uuid.New().String(),
			Payload:     initialImage,
			Instruction: OriginalConceptLabel,
			CreatedAt:   time.Now().UTC(),
		}},
		current: 0,
	}
}

// Append records a new version produced by instruction and makes it current.
func (l *Ledger) Append(image, instruction string) DesignVersion {
	v := DesignVersion{
		ID:          uuid.New().String(),
		Payload:     image,
		Instruction: instruction,
		CreatedAt:   time.Now().UTC(),
	}
	l.versions = append(l.versions, v)
	l.current = len(l.versions) - 1
	return v
}

// Restore moves the current pointer to an existing version. The ledger keeps
// its full history; nothing is removed.
func (l *Ledger) Restore(versionID string) (DesignVersion, error) {
	for i, v := range l.versions {
		if v.ID == versionID {
			l.current = i
			return v, nil
		}
	}
	return DesignVersion{}, ErrVersionNotFound
}

// Current returns the version the pointer is on.
func (l *Ledger) Current() DesignVersion {
	return l.versions[l.current]
}

// Versions returns the full history in creation order.
func (l *Ledger) Versions() []DesignVersion {
	out := make([]DesignVersion, len(l.versions))
	copy(out, l.versions)
	return out
}

// Len reports how many versions exist, seed included.
func (l *Ledger) Len() int {
	return len(l.versions)
}
