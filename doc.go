// Package ftquery is a Go client for RediSearch full-text queries and
// aggregations.
//
// Requests are described with mutable builders and compiled into FT.SEARCH,
// FT.AGGREGATE and FT.CURSOR arguments; replies are decoded into typed
// results.
//
//	c, err := ftquery.New(ftquery.WithRedis("localhost:6379", ""), ftquery.WithDefaultDialect(2))
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	q := ftquery.NewQuery("@title:hello").
//		NumericFilter("price", 0, true, math.Inf(1), false).
//		SortBy("price", ftquery.SortAsc).
//		Limit(0, 20)
//	res, err := c.Search(ctx, "products", q)
//
// Large aggregations are read in batches through a cursor:
//
//	agg := ftquery.NewAggregation("*").
//		GroupBy([]string{"@brand"}, ftquery.Count().As("n")).
//		WithCursor(ftquery.Cursor{Count: 500})
//	err = c.AggregateEach(ctx, "products", agg, func(b *ftquery.AggregationResult) (bool, error) {
//		for _, row := range b.Rows {
//			// ...
//		}
//		return true, nil
//	})
package ftquery
