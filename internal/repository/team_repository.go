package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/samber/oops"

	"statsboard/internal/entity"
)

// TeamRepository reads team names from the externally owned players table.
type TeamRepository struct {
	db      *sql.DB
	timeout time.Duration
	query   string
}

// NewTeamRepository takes the players table name, optionally schema-qualified
// ("dbo.spillere"). Each part is quoted as an identifier.
func NewTeamRepository(db *sql.DB, table string, timeout time.Duration) *TeamRepository {
	return &TeamRepository{
		db:      db,
		timeout: timeout,
		query: `SELECT DISTINCT hold FROM ` + quoteTable(table) +
			` WHERE hold IS NOT NULL AND hold <> '' ORDER BY hold`,
	}
}

// DistinctTeams returns one Team per distinct non-empty hold value.
func (r *TeamRepository) DistinctTeams(ctx context.Context) ([]entity.Team, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, r.query)
	if err != nil {
		return nil, oops.Code("TEAM_LOOKUP_FAILED").Wrap(err)
	}
	defer rows.Close()

	teams := make([]entity.Team, 0)
	seen := make(map[string]struct{})
	for rows.Next() {
		var hold sql.NullString
		if err := rows.Scan(&hold); err != nil {
			return nil, oops.Code("TEAM_LOOKUP_FAILED").Wrap(err)
		}
		if !hold.Valid || hold.String == "" {
			continue
		}
		if _, dup := seen[hold.String]; dup {
			continue
		}
		seen[hold.String] = struct{}{}
		teams = append(teams, entity.NewTeam(hold.String))
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("TEAM_LOOKUP_FAILED").Wrap(err)
	}

	return teams, nil
}

func quoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}
