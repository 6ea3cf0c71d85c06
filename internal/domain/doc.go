// Package domain models oceanographic cruise data: station visits ("travels")
// and the depth profiles measured during each visit.
//
// # Data Source
//
// Both inputs are CSV exports from a cruise data management system. The
// travel file has one row per station visit; the measurement file has one row
// per (visit, depth, variable) sample and references the visit through "id".
//
// # Column Conventions
//
// Labels are kept verbatim on load, embedded units and mixed case included:
//
//	travels:      yyyy-mm-ddThh:mm:ss.sss, id, Station, Cruise,
//	              Longitude [degrees_east], Latitude [degrees_north], Bot. Depth [m]
//	measurements: id, Depth [m], variable, valor
//
// After [StandardizeNames] every label is canonical (see [Canonicalize]):
//
//	"Longitude [degrees_east]"  →  "longitude__degrees_east_"
//	"Bot. Depth [m]"            →  "bot__depth__m_"
//	"Depth [m]"                 →  "depth__m_"
//
// The same canonicalization is applied to the cell values of "variable", so
// "Dissolved Oxygen [ml/l]" becomes "dissolved_oxygen__ml_l_".
//
// # Timestamps
//
// Dates arrive as ISO-8601 local times, usually "2017-03-05T20:15:00.000".
// They are parsed without zone conversion and stored back in
// [TimestampLayout]. Empty cells are missing timestamps and are skipped by
// every aggregate.
//
// # Standardized Date
//
// Samples taken during one station visit carry slightly different times. The
// visit time is the earliest timestamp among the rows that share a (cruise,
// station) pair; [StandardizeDates] broadcasts it into "standardized_date",
// and the peak sampling hour is counted on that column.
//
// # Depth Buckets
//
// Depths are grouped into half-open 10 m intervals starting at the surface:
// [0, 10), [10, 20), … up to the interval that holds the deepest sample.
// Averages are reported for every cruise × bucket cell; a cell with no
// samples keeps a missing mean rather than being dropped or imputed.
//
// # Missing Values
//
// The table library spells missing cells "NaN". Numeric columns with a
// missing cell are stored as floats; integral columns without gaps as ints.
package domain
