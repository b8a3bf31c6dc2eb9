// Package domain models NSW Health COVID-19 case notifications and the
// Local Government Area (LGA) reference data they are mapped onto.
//
// # Data Source
//
// Case notifications come from the NSW Government open data portal
// (data.nsw.gov.au), resource 21304414-1ff1-4243-a5d2-f52778048b29, queried
// through the CKAN datastore_search_sql endpoint. Each record is one
// notified case:
//
//	{"notification_date": "2021-11-10", "lga_code19": "17200", "lga_name19": "Sydney (C)"}
//
// NSW Health assigns postcodes and suburbs to 2019 LGAs before publishing, so
// the LGA code is the join key against the boundary set. Some records carry
// an empty code (overseas-acquired, correctional settings, or unknown
// address); these are counted but cannot be mapped.
//
// # Boundaries
//
// LGA polygons come from the ABS ASGS Edition 3 digital boundary files
// (LGA_2021_AUST_GDA2020). The national file is cut down to NSW offline; the
// loader still filters on STE_NAME21 so the full file also works.
//
// # Region Names
//
// Case data uses names with council-type suffixes ("Sydney (C)",
// "Bathurst Regional (A)") while ABS 2021 names drop them ("Sydney",
// "Bathurst Regional"). Names are compared through [NormalizeRegionName],
// which lowercases, collapses whitespace and strips a trailing parenthesised
// suffix.
//
// # Classification
//
// Each LGA is classified as capital (Greater Sydney) or other (rest of
// NSW). The two classes are drawn as separate map panels because the Sydney
// LGAs are too small to read at state scale.
//
// # Colour Scale
//
// Every frame shares one colour ceiling: the largest single (date, LGA) count
// in the whole aggregate table. Frame-to-frame intensity is therefore
// comparable across the animation.
package domain
