package repository

// Schema lists the DDL the engine needs. The fixture, odds and scraped-data
// tables belong to the ingestion services; they are created here only when
// missing so local and test databases are self-contained. Timestamps are unix
// seconds.
func Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS leagues (
			id   BIGINT PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS teams (
			id   BIGINT PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id           BIGINT PRIMARY KEY,
			league_id    BIGINT,
			season       TEXT,
			home_team_id BIGINT NOT NULL,
			away_team_id BIGINT NOT NULL,
			kickoff_at   BIGINT NOT NULL,
			status       TEXT NOT NULL DEFAULT 'scheduled',
			home_goals   INTEGER,
			away_goals   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_home_kickoff ON matches (home_team_id, kickoff_at)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_away_kickoff ON matches (away_team_id, kickoff_at)`,
		`CREATE TABLE IF NOT EXISTS match_odds (
			match_id     BIGINT NOT NULL,
			source       TEXT NOT NULL DEFAULT '',
			home_odds    DOUBLE PRECISION NOT NULL,
			draw_odds    DOUBLE PRECISION NOT NULL,
			away_odds    DOUBLE PRECISION NOT NULL,
			collected_at BIGINT NOT NULL,
			PRIMARY KEY (match_id, source, collected_at)
		)`,
		`CREATE TABLE IF NOT EXISTS match_scraped_data (
			match_id   BIGINT NOT NULL,
			data_type  TEXT NOT NULL,
			data       TEXT NOT NULL,
			scraped_at BIGINT NOT NULL,
			PRIMARY KEY (match_id, data_type)
		)`,
		`CREATE TABLE IF NOT EXISTS team_ratings (
			team_id        BIGINT NOT NULL,
			rating_type    TEXT NOT NULL,
			model_version  TEXT NOT NULL,
			rating_value   DOUBLE PRECISION NOT NULL,
			matches_played INTEGER NOT NULL DEFAULT 0,
			confidence     TEXT NOT NULL DEFAULT 'low',
			last_match_at  BIGINT,
			updated_at     BIGINT NOT NULL,
			PRIMARY KEY (team_id, rating_type, model_version)
		)`,
		`CREATE TABLE IF NOT EXISTS rating_applied_matches (
			match_id      BIGINT NOT NULL,
			model_version TEXT NOT NULL,
			applied_at    BIGINT NOT NULL,
			PRIMARY KEY (match_id, model_version)
		)`,
		`CREATE TABLE IF NOT EXISTS match_statistics (
			match_id            BIGINT PRIMARY KEY,
			model_version       TEXT NOT NULL,
			home_win_prob       DOUBLE PRECISION NOT NULL,
			draw_prob           DOUBLE PRECISION NOT NULL,
			away_win_prob       DOUBLE PRECISION NOT NULL,
			expected_home_goals DOUBLE PRECISION NOT NULL,
			expected_away_goals DOUBLE PRECISION NOT NULL,
			over25_prob         DOUBLE PRECISION NOT NULL,
			btts_prob           DOUBLE PRECISION NOT NULL,
			likely_home_goals   INTEGER NOT NULL,
			likely_away_goals   INTEGER NOT NULL,
			likely_score_prob   DOUBLE PRECISION NOT NULL,
			odds_home           DOUBLE PRECISION,
			odds_draw           DOUBLE PRECISION,
			odds_away           DOUBLE PRECISION,
			odds_source         TEXT,
			fair_home_prob      DOUBLE PRECISION NOT NULL,
			fair_draw_prob      DOUBLE PRECISION NOT NULL,
			fair_away_prob      DOUBLE PRECISION NOT NULL,
			bookmaker_margin    DOUBLE PRECISION NOT NULL,
			ev_home             DOUBLE PRECISION NOT NULL,
			ev_draw             DOUBLE PRECISION NOT NULL,
			ev_away             DOUBLE PRECISION NOT NULL,
			best_value_outcome  TEXT,
			stake_home          DOUBLE PRECISION NOT NULL,
			stake_draw          DOUBLE PRECISION NOT NULL,
			stake_away          DOUBLE PRECISION NOT NULL,
			home_elo            DOUBLE PRECISION NOT NULL,
			away_elo            DOUBLE PRECISION NOT NULL,
			home_form           DOUBLE PRECISION,
			away_form           DOUBLE PRECISION,
			home_xg_form        DOUBLE PRECISION,
			away_xg_form        DOUBLE PRECISION,
			home_xg_trend       DOUBLE PRECISION,
			away_xg_trend       DOUBLE PRECISION,
			home_regression     TEXT NOT NULL DEFAULT '',
			away_regression     TEXT NOT NULL DEFAULT '',
			home_form_matches   INTEGER NOT NULL DEFAULT 0,
			away_form_matches   INTEGER NOT NULL DEFAULT 0,
			home_xg_matches     INTEGER NOT NULL DEFAULT 0,
			away_xg_matches     INTEGER NOT NULL DEFAULT 0,
			home_rest_days      INTEGER,
			away_rest_days      INTEGER,
			importance_score    DOUBLE PRECISION,
			data_quality        TEXT NOT NULL,
			missing_inputs      TEXT NOT NULL DEFAULT '',
			calculated_at       BIGINT NOT NULL
		)`,
	}
}
