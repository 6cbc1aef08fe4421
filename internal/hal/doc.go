// Package hal defines the hardware boundary of the daemon: GPIO lines
// for the lock actuator and reed switch, and sector-erasable flash for
// the persisted configuration record.
//
// Real peripheral drivers live outside this repository; the simulated
// pins and the file/memory flash images here serve development, tests
// and --simulate deployments.
package hal
