// Package slam holds the GurionRock domain model: sensor readings, the
// tracked and landmark objects built from them, the shared statistics and
// crash registries, and the messages the sensor actors exchange on the bus.
package slam
