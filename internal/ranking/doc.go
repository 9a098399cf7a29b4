// Package ranking scores and orders a candidate collection of colleges
// against a user's priorities and academic profile.
//
// Basic Usage:
//
//	// Load calibration (typically at startup)
//	cal, err := ranking.LoadCalibration("configs/ranking.calibration.json")
//	if err != nil {
//		log.Warn("using default calibration", "error", err)
//	}
//	engine := ranking.NewEngine(cal, ranking.WithLogger(logger))
//
//	// Rank a collection returned by a college.Repository
//	req := ranking.DefaultRequest()
//	req.Priorities = ranking.ParsePriorities(map[string]float64{"cost": 2, "academics": 1})
//	results, err := engine.Rank(collection, req)
//
// Pipeline:
//
// Rank runs a fixed sequence of stages. Requested categories are expanded
// to attributes, falling back to a default list. Attributes present for
// fewer than the coverage threshold of candidates are dropped unless that
// would drop them all. Each column is winsorized to its percentile band,
// imputed with its median and min-max scaled to [0, 1]; columns with no
// data are removed. Lower-is-better columns are flipped, then averaged into
// one sub-score per category. When the profile carries SAT, ACT or GPA, a
// fit sub-score measures how the user sits against each college's admitted
// band. The final score is the priority-weighted mean of the sub-scores a
// candidate actually has.
//
// Calibration:
//
// Thresholds and band offsets are deploy-time constants loaded from a JSON
// file. Fields left out of the file keep their defaults. See
// configs/ranking.calibration.json for the default configuration.
package ranking
