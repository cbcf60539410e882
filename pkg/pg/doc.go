// Package pg connects to PostgreSQL with pgx/v5 and applies goose
// migrations.
//
// Connect opens a *pgxpool.Pool from Config, retrying while the database
// starts. Migrate runs migrations from any fs.FS, so packages that own
// tables (such as the session store) ship them with go:embed:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, cfg, session.Migrations, session.MigrationsDir, log); err != nil {
//		return err
//	}
package pg
