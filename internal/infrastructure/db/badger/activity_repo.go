package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/ark-network/vault/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const activityStoreDir = "activities"

type activityDTO struct {
	Id           string
	OutpointTxid string
	OutpointVOut uint32
	Kind         int
	Txid         string
	Outcome      string
	Error        string
	CreatedAt    int64
}

type activityRepository struct {
	store *badgerhold.Store
}

func NewActivityRepository(config ...interface{}) (domain.ActivityRepository, error) {
	baseDir, logger, err := parseConfig(config)
	if err != nil {
		return nil, err
	}
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, activityStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open activity store: %s", err)
	}
	return &activityRepository{store}, nil
}

func (r *activityRepository) AddActivity(
	ctx context.Context, activity domain.Activity,
) error {
	dto := activityDTO{
		Id:           activity.Id,
		OutpointTxid: activity.Outpoint.Txid,
		OutpointVOut: activity.Outpoint.VOut,
		Kind:         int(activity.Kind),
		Txid:         activity.Txid,
		Outcome:      string(activity.Outcome),
		Error:        activity.Error,
		CreatedAt:    activity.CreatedAt.UnixNano(),
	}
	return withRetry(func() error {
		return r.store.Insert(dto.Id, dto)
	})
}

// GetActivities returns the journal oldest first, restricted to the given
// vault if any.
func (r *activityRepository) GetActivities(
	ctx context.Context, outpoint *domain.Outpoint,
) ([]domain.Activity, error) {
	var query *badgerhold.Query
	if outpoint != nil {
		query = badgerhold.Where("OutpointTxid").Eq(outpoint.Txid).
			And("OutpointVOut").Eq(outpoint.VOut)
	}

	dtos := make([]activityDTO, 0)
	if err := r.store.Find(&dtos, query); err != nil {
		return nil, err
	}
	sort.SliceStable(dtos, func(i, j int) bool {
		return dtos[i].CreatedAt < dtos[j].CreatedAt
	})

	activities := make([]domain.Activity, 0, len(dtos))
	for _, dto := range dtos {
		activities = append(activities, domain.Activity{
			Id:        dto.Id,
			Outpoint:  domain.Outpoint{Txid: dto.OutpointTxid, VOut: dto.OutpointVOut},
			Kind:      domain.TransactionKind(dto.Kind),
			Txid:      dto.Txid,
			Outcome:   domain.ActivityOutcome(dto.Outcome),
			Error:     dto.Error,
			CreatedAt: time.Unix(0, dto.CreatedAt),
		})
	}
	return activities, nil
}

func (r *activityRepository) Close() {
	r.store.Close()
}
