// Package entries provides the SQLite-backed Repository for stowlog entries.
//
// Every method runs inside exactly one store unit of work, so a caller never
// observes a partially applied call. SQL failures are reported wrapped in
// types.ErrStorage; a duplicate id on Add is reported as
// types.ErrDuplicateKey.
//
// Typical usage:
//
//	repo := entries.NewSQLiteRepository(engine)
//	_ = repo.Add(ctx, e)
//	got, ok, _ := repo.Get(ctx, e.ID)
//	all, _ := repo.GetAll(ctx)
//	_ = repo.Delete(ctx, e.ID)
package entries
