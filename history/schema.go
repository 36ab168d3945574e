package history

// Schema creates the tables the Postgres recorder writes to. Player ids are
// assigned by the caller; game ids come from the games sequence.
const Schema = `
CREATE TABLE IF NOT EXISTS players (
	id         INTEGER PRIMARY KEY,
	name       VARCHAR(100) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS games (
	id         SERIAL PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	max_cards  INTEGER NOT NULL,
	status     VARCHAR(16) NOT NULL DEFAULT 'active'
);

CREATE TABLE IF NOT EXISTS game_players (
	game_id   INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	player_id INTEGER NOT NULL REFERENCES players(id),
	position  INTEGER NOT NULL,
	PRIMARY KEY (game_id, player_id)
);

CREATE TABLE IF NOT EXISTS rounds (
	id              SERIAL PRIMARY KEY,
	game_id         INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	round_number    INTEGER NOT NULL,
	cards_count     INTEGER NOT NULL,
	dealer_position INTEGER NOT NULL,
	UNIQUE (game_id, round_number)
);

CREATE TABLE IF NOT EXISTS round_scores (
	id            SERIAL PRIMARY KEY,
	round_id      INTEGER NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
	player_id     INTEGER NOT NULL REFERENCES players(id),
	bid           INTEGER NOT NULL,
	tricks_won    INTEGER NOT NULL,
	score         INTEGER NOT NULL,
	running_total INTEGER NOT NULL
);
`
