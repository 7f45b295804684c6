// Package schema models the data-source description the ambiguity resolver
// works against: tables, columns, their descriptions and business terms,
// and the Provider contract through which the description is fetched per
// conversation thread.
package schema
