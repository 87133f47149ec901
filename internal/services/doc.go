// Package services implements the GurionRock actors on top of the
// microservice runtime. Each constructor returns an actor that has not been
// started; the caller runs it.
//
// Shutdown is cooperative: a sensor announces TerminatedBroadcast when it has
// nothing left to report, FusionSLAM stops once every sensor has, and the
// clock stops when FusionSLAM does. A CrashedBroadcast stops everyone.
package services
