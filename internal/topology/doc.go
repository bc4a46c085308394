// Package topology describes the layout of homes, rooms and accessories.
//
// A topology is authored as YAML, persisted in SQLite and turned into a live
// in-memory host graph by Build:
//
//	doc, err := topology.LoadFile("configs/topology.yaml")
//	repo := topology.NewSQLiteRepository(db.DB)
//	err = repo.Replace(ctx, doc)
//	graph, err := topology.Build(doc, writer)
//
// Service and characteristic types accept either a friendly name
// ("lightbulb", "brightness") or a HAP short code ("43", "8").
package topology
