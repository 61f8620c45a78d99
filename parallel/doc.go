// Package parallel runs a runner tree concurrently under bounded resources.
//
// A Builder configures how many suites, classes and test methods may run at
// once and whether the three levels share one slot pool or get a pool each.
// The resulting Computer wires level schedulers into a runner tree and can
// shut the run down, cooperatively or by cancelling in-flight work.
//
// Parents waiting for their children never hold capacity the children need:
// while blocked they hand back their slot on any pool or balancer the
// children draw from and take it back afterwards, always in the order
// balancer first, pool second.
package parallel
