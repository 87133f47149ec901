/*
Package messagebus implements the in-process dispatch engine shared by all actors.
It owns one mailbox per registered actor, routes events round robin among the
subscribers of their concrete type, fans broadcasts out to every subscriber and
tracks the promise of each in-flight event until it is completed.
*/
package messagebus
