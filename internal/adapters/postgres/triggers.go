package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/realtime"
)

// notifyFunction publishes every row change on the project's channel.
// Deletes carry the old row, updates both rows.
var notifyFunction = fmt.Sprintf(`CREATE OR REPLACE FUNCTION siteops_notify_change() RETURNS trigger AS $$
DECLARE
	project text;
	body jsonb;
BEGIN
	IF TG_OP = 'DELETE' THEN
		project := OLD.project_id;
		body := jsonb_build_object('table', TG_TABLE_NAME, 'action', TG_OP, 'old', to_jsonb(OLD));
	ELSIF TG_OP = 'UPDATE' THEN
		project := NEW.project_id;
		body := jsonb_build_object('table', TG_TABLE_NAME, 'action', TG_OP, 'new', to_jsonb(NEW), 'old', to_jsonb(OLD));
	ELSE
		project := NEW.project_id;
		body := jsonb_build_object('table', TG_TABLE_NAME, 'action', TG_OP, 'new', to_jsonb(NEW));
	END IF;
	PERFORM pg_notify('%s' || project, body::text);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql`, realtime.ChannelPrefix)

// TriggerStatements returns the DDL that installs the notify trigger on
// every watched table.
func TriggerStatements() []string {
	stmts := []string{notifyFunction}
	for _, table := range models.WatchedTables {
		name := "siteops_notify_" + string(table)
		stmts = append(stmts,
			fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s", name, table),
			fmt.Sprintf("CREATE TRIGGER %s AFTER INSERT OR UPDATE OR DELETE ON %s FOR EACH ROW EXECUTE FUNCTION siteops_notify_change()", name, table),
		)
	}
	return stmts
}

// TriggerSQL is TriggerStatements as one script.
func TriggerSQL() string {
	return strings.Join(TriggerStatements(), ";\n\n") + ";\n"
}

// Open opens a Postgres database.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// InstallTriggers installs the notify function and triggers in one
// transaction.
func InstallTriggers(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range TriggerStatements() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to install triggers: %w", err)
		}
	}
	return tx.Commit()
}
