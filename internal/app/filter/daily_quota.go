package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/kioskbox/internal/app/account"
)

// QuotaRecorder records an added song against an account's daily quota.
type QuotaRecorder interface {
	RecordSongAdded(username string) (bool, error)
}

// DailyQuotaFilter charges the requester's daily quota.
// It mutates the account, so it must run last in the chain.
type DailyQuotaFilter struct {
	recorder QuotaRecorder
}

// NewDailyQuotaFilter creates a new daily quota filter.
// It needs the account store, so it is not registered; the session manager
// creates it and appends it to the end of the chain.
func NewDailyQuotaFilter(recorder QuotaRecorder) *DailyQuotaFilter {
	return &DailyQuotaFilter{recorder: recorder}
}

func (f *DailyQuotaFilter) Name() string {
	return "daily_quota_filter"
}

func (f *DailyQuotaFilter) Description() string {
	return "Allows each account a fixed number of songs per calendar day"
}

func (f *DailyQuotaFilter) ReturnCodes() []string {
	return []string{"quota_exceeded", "invalid_credentials"}
}

func (f *DailyQuotaFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *DailyQuotaFilter) Check(ctx context.Context, req SongRequest) Result {
	ok, err := f.recorder.RecordSongAdded(req.Username)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			return Reject("invalid_credentials")
		}
		zlog.Error().Msgf("daily quota filter: username=%s err=%v", req.Username, err)
		return Reject("quota_exceeded")
	}
	if !ok {
		return Reject("quota_exceeded")
	}
	return Accept()
}
