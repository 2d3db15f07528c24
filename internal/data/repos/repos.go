package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/sharedexperiences-backend/internal/data/repos/experiences"
	"github.com/yungbote/sharedexperiences-backend/internal/data/repos/identity"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

type ExperienceRepo = experiences.ExperienceRepo
type RecentQuery = experiences.RecentQuery
type ClusterRepo = experiences.ClusterRepo
type GroupSummaryRepo = experiences.GroupSummaryRepo
type UserIdentityRepo = identity.UserIdentityRepo

type Repos struct {
	Experience   ExperienceRepo
	Cluster      ClusterRepo
	GroupSummary GroupSummaryRepo
	UserIdentity UserIdentityRepo
	Tx           TxRunner
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Experience:   experiences.NewExperienceRepo(db, log),
		Cluster:      experiences.NewClusterRepo(db, log),
		GroupSummary: experiences.NewGroupSummaryRepo(db, log),
		UserIdentity: identity.NewUserIdentityRepo(db, log),
		Tx:           NewGormTxRunner(db),
	}
}
