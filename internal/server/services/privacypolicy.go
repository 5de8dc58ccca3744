package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/memberservice/internal/common"
	"github.com/dmitrijs2005/memberservice/internal/server/models"
	"github.com/dmitrijs2005/memberservice/internal/server/repositories/repomanager"
)

const MsgPrivacyPolicyNotFound = "Privacy policy not found"

type PrivacyPolicyService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewPrivacyPolicyService(db *sql.DB, m repomanager.RepositoryManager) *PrivacyPolicyService {
	return &PrivacyPolicyService{db: db, repomanager: m}
}

func (s *PrivacyPolicyService) Fetch(ctx context.Context, name string) (*models.PrivacyPolicy, error) {
	p, err := s.repomanager.PrivacyPolicies(s.db).FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewNotFoundError(MsgPrivacyPolicyNotFound)
		}
		return nil, common.NewInternalError(MsgServerError, err)
	}
	return p, nil
}
