package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"TipsEngine/internal/domain/models"
	domrepo "TipsEngine/internal/domain/repository"
	"TipsEngine/internal/services/features"
	applogger "TipsEngine/pkg/logger"
	"TipsEngine/pkg/sqldb"
)

// SQLStore implements the match, rating and statistics repositories on
// Postgres or SQLite.
type SQLStore struct {
	client *sqldb.Client
	db     *sql.DB
	l      *applogger.Logger
	now    func() time.Time
}

var (
	_ domrepo.MatchRepository      = (*SQLStore)(nil)
	_ domrepo.RatingRepository     = (*SQLStore)(nil)
	_ domrepo.StatisticsRepository = (*SQLStore)(nil)
)

func NewSQLStore(client *sqldb.Client) *SQLStore {
	return &SQLStore{client: client, db: client.DB(), now: time.Now}
}

// SetLogger injects a structured logger.
func (s *SQLStore) SetLogger(l *applogger.Logger) { s.l = l }

// Init creates missing tables.
func (s *SQLStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, Schema())
}

func (s *SQLStore) q(query string) string { return s.client.Rebind(query) }

// --- matches ---

const matchColumns = `m.id, m.league_id, COALESCE(lg.name, ''), COALESCE(m.season, ''),
	m.home_team_id, m.away_team_id, COALESCE(ht.name, ''), COALESCE(awt.name, ''),
	m.kickoff_at, m.status, m.home_goals, m.away_goals`

const matchFrom = ` FROM matches m
	LEFT JOIN leagues lg ON lg.id = m.league_id
	LEFT JOIN teams ht ON ht.id = m.home_team_id
	LEFT JOIN teams awt ON awt.id = m.away_team_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(row scanner, extra ...any) (models.Match, error) {
	var (
		m       models.Match
		league  sql.NullInt64
		kickoff int64
		status  string
		hg, ag  sql.NullInt64
	)
	dest := append([]any{
		&m.ID, &league, &m.LeagueName, &m.Season,
		&m.HomeTeamID, &m.AwayTeamID, &m.HomeTeamName, &m.AwayTeamName,
		&kickoff, &status, &hg, &ag,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return models.Match{}, err
	}
	m.LeagueID = league.Int64
	m.KickoffAt = time.Unix(kickoff, 0).UTC()
	m.Status = models.MatchStatus(status)
	m.HomeGoals = intPtr(hg)
	m.AwayGoals = intPtr(ag)
	return m, nil
}

func (s *SQLStore) GetMatch(ctx context.Context, matchID int64) (*models.Match, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+matchColumns+matchFrom+` WHERE m.id = ?`), matchID)
	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("match %d: %w", matchID, models.ErrMatchNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get match %d: %w", matchID, err)
	}
	return &m, nil
}

func (s *SQLStore) RecentMatches(ctx context.Context, teamID int64, before time.Time, limit int) ([]models.TeamMatch, error) {
	query := `SELECT ` + matchColumns + `, xs.data` + matchFrom + `
		LEFT JOIN match_scraped_data xs ON xs.match_id = m.id AND xs.data_type = ?
		WHERE (m.home_team_id = ? OR m.away_team_id = ?)
		  AND m.kickoff_at < ?
		  AND m.home_goals IS NOT NULL AND m.away_goals IS NOT NULL
		ORDER BY m.kickoff_at DESC, m.id DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, s.q(query), string(models.AuxXStats), teamID, teamID, before.Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("recent matches team %d: %w", teamID, err)
	}
	defer rows.Close()

	out := make([]models.TeamMatch, 0, limit)
	for rows.Next() {
		var raw sql.NullString
		m, err := scanMatch(rows, &raw)
		if err != nil {
			return nil, fmt.Errorf("scan recent match: %w", err)
		}
		var aux *models.XStatsData
		if raw.Valid {
			aux = s.decodeXStats(m.ID, raw.String)
		}
		if tm, ok := features.Perspective(m, teamID, aux); ok {
			out = append(out, tm)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent matches rows: %w", err)
	}
	return out, nil
}

func (s *SQLStore) decodeXStats(matchID int64, raw string) *models.XStatsData {
	data, err := models.DecodeAuxData(string(models.AuxXStats), []byte(raw))
	if err != nil {
		if s.l != nil {
			s.l.Warn("skip malformed xStats payload",
				applogger.Int64("match_id", matchID),
				applogger.Error(err))
		}
		return nil
	}
	x := data.(models.XStatsData)
	return &x
}

func (s *SQLStore) PreviousMatchAt(ctx context.Context, teamID int64, before time.Time) (*time.Time, error) {
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT MAX(kickoff_at) FROM matches
		WHERE (home_team_id = ? OR away_team_id = ?)
		  AND kickoff_at < ?
		  AND home_goals IS NOT NULL AND away_goals IS NOT NULL`),
		teamID, teamID, before.Unix()).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("previous match team %d: %w", teamID, err)
	}
	return timePtr(last), nil
}

func (s *SQLStore) CurrentOdds(ctx context.Context, matchID int64) (*models.OddsQuote, error) {
	var (
		q         = models.OddsQuote{MatchID: matchID}
		collected int64
	)
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT home_odds, draw_odds, away_odds, source, collected_at
		FROM match_odds
		WHERE match_id = ?
		ORDER BY collected_at DESC
		LIMIT 1`), matchID).Scan(&q.Home, &q.Draw, &q.Away, &q.Source, &collected)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current odds match %d: %w", matchID, err)
	}
	q.CollectedAt = time.Unix(collected, 0).UTC()
	return &q, nil
}

func (s *SQLStore) AuxData(ctx context.Context, matchID int64, dataType models.AuxDataType) (models.AuxData, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT data FROM match_scraped_data WHERE match_id = ? AND data_type = ?`),
		matchID, string(dataType)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("aux data match %d: %w", matchID, err)
	}
	data, err := models.DecodeAuxData(string(dataType), []byte(raw))
	if err != nil {
		return nil, fmt.Errorf("aux data match %d: %w", matchID, err)
	}
	return data, nil
}

func (s *SQLStore) FinishedMatches(ctx context.Context, limit int) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + matchFrom + `
		WHERE m.home_goals IS NOT NULL AND m.away_goals IS NOT NULL
		ORDER BY m.kickoff_at ASC, m.id ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("finished matches: %w", err)
	}
	defer rows.Close()

	var out []models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan finished match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- ratings ---

func (s *SQLStore) loadRatings(ctx context.Context, teamID int64, version string) (map[models.RatingKind]models.TeamRating, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT rating_type, rating_value, matches_played, confidence, last_match_at, updated_at
		FROM team_ratings
		WHERE team_id = ? AND model_version = ?`), teamID, version)
	if err != nil {
		return nil, fmt.Errorf("load ratings team %d: %w", teamID, err)
	}
	defer rows.Close()

	out := make(map[models.RatingKind]models.TeamRating, 3)
	for rows.Next() {
		var (
			r          = models.TeamRating{TeamID: teamID, Version: version}
			kind, tier string
			last       sql.NullInt64
			updated    int64
		)
		if err := rows.Scan(&kind, &r.Value, &r.MatchesPlayed, &tier, &last, &updated); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		r.Kind = models.RatingKind(kind)
		r.Confidence = models.ConfidenceTier(tier)
		r.LastMatchAt = timePtr(last)
		r.UpdatedAt = time.Unix(updated, 0).UTC()
		out[r.Kind] = r
	}
	return out, rows.Err()
}

func (s *SQLStore) GetRatings(ctx context.Context, teamID int64, version string, defaults models.RatingSet) (models.RatingSet, error) {
	found, err := s.loadRatings(ctx, teamID, version)
	if err != nil {
		return models.RatingSet{}, err
	}

	if len(found) < len(models.RatingKinds()) {
		now := s.now().UTC()
		for _, kind := range models.RatingKinds() {
			if _, ok := found[kind]; ok {
				continue
			}
			def := defaults.Get(kind)
			_, err := s.db.ExecContext(ctx, s.q(`
				INSERT INTO team_ratings (team_id, rating_type, model_version, rating_value, matches_played, confidence, last_match_at, updated_at)
				VALUES (?, ?, ?, ?, 0, ?, NULL, ?)
				ON CONFLICT (team_id, rating_type, model_version) DO NOTHING`),
				teamID, string(kind), version, def.Value, string(models.ConfidenceLow), now.Unix())
			if err != nil {
				return models.RatingSet{}, fmt.Errorf("create default %s rating team %d: %w", kind, teamID, err)
			}
		}
		if found, err = s.loadRatings(ctx, teamID, version); err != nil {
			return models.RatingSet{}, err
		}
	}

	set := models.RatingSet{TeamID: teamID, Version: version}
	for _, kind := range models.RatingKinds() {
		r, ok := found[kind]
		if !ok {
			return models.RatingSet{}, fmt.Errorf("rating %s team %d missing after create", kind, teamID)
		}
		set.Set(r)
	}
	return set, nil
}

const upsertRatingSQL = `
	INSERT INTO team_ratings (team_id, rating_type, model_version, rating_value, matches_played, confidence, last_match_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (team_id, rating_type, model_version) DO UPDATE SET
		rating_value = excluded.rating_value,
		matches_played = excluded.matches_played,
		confidence = excluded.confidence,
		last_match_at = excluded.last_match_at,
		updated_at = excluded.updated_at`

func (s *SQLStore) SaveRatings(ctx context.Context, sets ...models.RatingSet) error {
	return s.client.WithTx(ctx, func(tx *sql.Tx) error {
		return s.saveRatingsTx(ctx, tx, sets)
	})
}

func (s *SQLStore) SaveMatchRatings(ctx context.Context, matchID int64, version string, sets ...models.RatingSet) error {
	return s.client.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO rating_applied_matches (match_id, model_version, applied_at)
			VALUES (?, ?, ?)
			ON CONFLICT (match_id, model_version) DO NOTHING`),
			matchID, version, s.now().Unix())
		if err != nil {
			return fmt.Errorf("mark match %d applied: %w", matchID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("mark match %d applied: %w", matchID, err)
		}
		if n == 0 {
			return fmt.Errorf("match %d version %s: %w", matchID, version, models.ErrAlreadyApplied)
		}
		return s.saveRatingsTx(ctx, tx, sets)
	})
}

func (s *SQLStore) saveRatingsTx(ctx context.Context, tx *sql.Tx, sets []models.RatingSet) error {
	query := s.q(upsertRatingSQL)
	for _, set := range sets {
		for _, r := range set.Rows() {
			updated := r.UpdatedAt
			if updated.IsZero() {
				updated = s.now()
			}
			_, err := tx.ExecContext(ctx, query,
				set.TeamID, string(r.Kind), set.Version, r.Value, r.MatchesPlayed,
				string(r.Confidence), unixOrNil(r.LastMatchAt), updated.Unix())
			if err != nil {
				return fmt.Errorf("save %s rating team %d: %w", r.Kind, set.TeamID, err)
			}
		}
	}
	return nil
}

func (s *SQLStore) MatchApplied(ctx context.Context, matchID int64, version string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT COUNT(*) FROM rating_applied_matches WHERE match_id = ? AND model_version = ?`),
		matchID, version).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("match %d applied: %w", matchID, err)
	}
	return n > 0, nil
}

func (s *SQLStore) CountRatings(ctx context.Context, version string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT COUNT(*) FROM team_ratings WHERE model_version = ? AND matches_played > 0`), version).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ratings %s: %w", version, err)
	}
	return n, nil
}

// --- statistics ---

var statisticsColumns = []string{
	"match_id", "model_version",
	"home_win_prob", "draw_prob", "away_win_prob", "expected_home_goals", "expected_away_goals",
	"over25_prob", "btts_prob", "likely_home_goals", "likely_away_goals", "likely_score_prob",
	"odds_home", "odds_draw", "odds_away", "odds_source",
	"fair_home_prob", "fair_draw_prob", "fair_away_prob", "bookmaker_margin",
	"ev_home", "ev_draw", "ev_away", "best_value_outcome",
	"stake_home", "stake_draw", "stake_away",
	"home_elo", "away_elo",
	"home_form", "away_form", "home_xg_form", "away_xg_form", "home_xg_trend", "away_xg_trend",
	"home_regression", "away_regression",
	"home_form_matches", "away_form_matches", "home_xg_matches", "away_xg_matches",
	"home_rest_days", "away_rest_days", "importance_score",
	"data_quality", "missing_inputs", "calculated_at",
}

func upsertStatisticsSQL() string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statisticsColumns)), ", ")
	updates := make([]string, 0, len(statisticsColumns)-1)
	for _, c := range statisticsColumns[1:] {
		updates = append(updates, c+" = excluded."+c)
	}
	return "INSERT INTO match_statistics (" + strings.Join(statisticsColumns, ", ") + ") VALUES (" + placeholders +
		") ON CONFLICT (match_id) DO UPDATE SET " + strings.Join(updates, ", ")
}

func statisticsArgs(st *models.MatchStatistics) []any {
	var oddsHome, oddsDraw, oddsAway, oddsSource any
	if st.Odds != nil {
		oddsHome, oddsDraw, oddsAway, oddsSource = st.Odds.Home, st.Odds.Draw, st.Odds.Away, st.Odds.Source
	}
	var best any
	if st.EV.BestValue != nil {
		best = string(*st.EV.BestValue)
	}
	p, mk := st.Probabilities, st.Markets
	return []any{
		st.MatchID, st.ModelVersion,
		p.HomeWin, p.Draw, p.AwayWin, p.ExpectedHomeGoals, p.ExpectedAwayGoals,
		mk.Over25, mk.BTTSYes, mk.MostLikelyHome, mk.MostLikelyAway, mk.MostLikelyProb,
		oddsHome, oddsDraw, oddsAway, oddsSource,
		st.Fair.Home, st.Fair.Draw, st.Fair.Away, st.Fair.Margin,
		st.EV.Home, st.EV.Draw, st.EV.Away, best,
		st.Stakes.Home, st.Stakes.Draw, st.Stakes.Away,
		st.HomeElo, st.AwayElo,
		floatOrNil(st.HomeForm.EMAForm), floatOrNil(st.AwayForm.EMAForm),
		floatOrNil(st.HomeForm.XGForm), floatOrNil(st.AwayForm.XGForm),
		floatOrNil(st.HomeForm.XGTrend), floatOrNil(st.AwayForm.XGTrend),
		string(st.HomeForm.Regression), string(st.AwayForm.Regression),
		st.HomeForm.Matches, st.AwayForm.Matches, st.HomeForm.XGMatches, st.AwayForm.XGMatches,
		intOrNil(st.HomeRestDays), intOrNil(st.AwayRestDays), floatOrNil(st.ImportanceScore),
		string(st.DataQuality), strings.Join(st.MissingInputs, ","), st.CalculatedAt.Unix(),
	}
}

// UpsertStatistics writes the whole result in one statement, replacing any
// previous result for the match.
func (s *SQLStore) UpsertStatistics(ctx context.Context, st *models.MatchStatistics) error {
	if _, err := s.db.ExecContext(ctx, s.q(upsertStatisticsSQL()), statisticsArgs(st)...); err != nil {
		return fmt.Errorf("upsert statistics match %d: %w", st.MatchID, err)
	}
	return nil
}

func (s *SQLStore) GetStatistics(ctx context.Context, matchID int64) (*models.MatchStatistics, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+strings.Join(statisticsColumns, ", ")+` FROM match_statistics WHERE match_id = ?`), matchID)

	var (
		st                                 models.MatchStatistics
		oddsHome, oddsDraw, oddsAway       sql.NullFloat64
		oddsSource, best                   sql.NullString
		homeForm, awayForm, homeXG, awayXG sql.NullFloat64
		homeTrend, awayTrend, importance   sql.NullFloat64
		homeReg, awayReg, quality, missing string
		homeRest, awayRest                 sql.NullInt64
		calculated                         int64
	)
	err := row.Scan(
		&st.MatchID, &st.ModelVersion,
		&st.Probabilities.HomeWin, &st.Probabilities.Draw, &st.Probabilities.AwayWin,
		&st.Probabilities.ExpectedHomeGoals, &st.Probabilities.ExpectedAwayGoals,
		&st.Markets.Over25, &st.Markets.BTTSYes, &st.Markets.MostLikelyHome, &st.Markets.MostLikelyAway, &st.Markets.MostLikelyProb,
		&oddsHome, &oddsDraw, &oddsAway, &oddsSource,
		&st.Fair.Home, &st.Fair.Draw, &st.Fair.Away, &st.Fair.Margin,
		&st.EV.Home, &st.EV.Draw, &st.EV.Away, &best,
		&st.Stakes.Home, &st.Stakes.Draw, &st.Stakes.Away,
		&st.HomeElo, &st.AwayElo,
		&homeForm, &awayForm, &homeXG, &awayXG, &homeTrend, &awayTrend,
		&homeReg, &awayReg,
		&st.HomeForm.Matches, &st.AwayForm.Matches, &st.HomeForm.XGMatches, &st.AwayForm.XGMatches,
		&homeRest, &awayRest, &importance,
		&quality, &missing, &calculated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("match %d: %w", matchID, models.ErrStatsNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get statistics match %d: %w", matchID, err)
	}

	st.Markets.Under25 = 1 - st.Markets.Over25
	st.Markets.BTTSNo = 1 - st.Markets.BTTSYes
	if oddsHome.Valid && oddsDraw.Valid && oddsAway.Valid {
		st.Odds = &models.OddsQuote{
			MatchID: matchID,
			Home:    oddsHome.Float64,
			Draw:    oddsDraw.Float64,
			Away:    oddsAway.Float64,
			Source:  oddsSource.String,
		}
	}
	if best.Valid && best.String != "" {
		o := models.Outcome(best.String)
		st.EV.BestValue = &o
	}
	st.HomeForm.EMAForm = floatPtr(homeForm)
	st.AwayForm.EMAForm = floatPtr(awayForm)
	st.HomeForm.XGForm = floatPtr(homeXG)
	st.AwayForm.XGForm = floatPtr(awayXG)
	st.HomeForm.XGTrend = floatPtr(homeTrend)
	st.AwayForm.XGTrend = floatPtr(awayTrend)
	st.HomeForm.Regression = models.RegressionFlag(homeReg)
	st.AwayForm.Regression = models.RegressionFlag(awayReg)
	st.HomeRestDays = intPtr(homeRest)
	st.AwayRestDays = intPtr(awayRest)
	st.ImportanceScore = floatPtr(importance)
	st.DataQuality = models.DataQuality(quality)
	st.MissingInputs = []string{}
	if missing != "" {
		st.MissingInputs = strings.Split(missing, ",")
	}
	st.CalculatedAt = time.Unix(calculated, 0).UTC()
	return &st, nil
}

// --- null helpers ---

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func intOrNil(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
