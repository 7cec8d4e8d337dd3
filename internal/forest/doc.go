// Package forest implements a random-forest classifier.
//
// Each tree is a CART tree grown on a bootstrap sample with weighted Gini
// impurity and a random subset of candidate features per split. Class
// weights can be balanced so rare genres count as much as common ones.
// Trees are grown concurrently; every tree draws from its own PCG stream
// keyed by the forest seed and the tree index, so a fitted forest depends
// only on its inputs and never on goroutine scheduling.
//
// Trees are stored as flat node slices with exported fields so a Forest
// round-trips through JSON without custom marshaling.
package forest
