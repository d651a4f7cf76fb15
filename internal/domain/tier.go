package domain

import (
	"errors"
	"strings"
)

// StorageTier names the backing store a request's reads and writes go through.
type StorageTier string

const (
	TierDemo     StorageTier = "demo"
	TierFallback StorageTier = "fallback"
	TierPrimary  StorageTier = "primary"
)

// AccountKind tags a user id with how its data must be stored. Demo accounts
// never touch durable storage.
type AccountKind string

const (
	AccountDemo       AccountKind = "demo"
	AccountRegistered AccountKind = "registered"
)

// ErrUnknownAccountKind is returned for an explicit kind that is not recognized.
var ErrUnknownAccountKind = errors.New("unknown account kind")

// Account is a user id together with its explicit kind.
type Account struct {
	UserID string
	Kind   AccountKind
}

// ResolveAccount builds an Account. An explicit kind wins; otherwise the kind
// is inferred from demoPrefix so older clients that only send a prefixed user
// id keep working.
func ResolveAccount(userID, explicit, demoPrefix string) (Account, error) {
	switch AccountKind(strings.ToLower(strings.TrimSpace(explicit))) {
	case AccountDemo:
		return Account{UserID: userID, Kind: AccountDemo}, nil
	case AccountRegistered:
		return Account{UserID: userID, Kind: AccountRegistered}, nil
	case "":
	default:
		return Account{}, ErrUnknownAccountKind
	}
	if demoPrefix != "" && strings.HasPrefix(userID, demoPrefix) {
		return Account{UserID: userID, Kind: AccountDemo}, nil
	}
	return Account{UserID: userID, Kind: AccountRegistered}, nil
}

// IsDemo reports whether the account is a demo account.
func (a Account) IsDemo() bool { return a.Kind == AccountDemo }

// ProviderResult is one language-model reply. It is folded into an assistant
// message and never stored on its own.
type ProviderResult struct {
	Content    string
	Model      string
	TokenCount int
	LatencyMs  int64
}

// Metadata projects the result onto assistant-message metadata.
func (r ProviderResult) Metadata() MessageMetadata {
	return MessageMetadata{Model: r.Model, TokenCount: r.TokenCount, LatencyMs: r.LatencyMs}
}
