/*
Package queue defines TreeJobs to grow a tree as well as an interface for
a Queue to manage them.

It also provides an in-memory implementation of the Queue interface; see
the redisq subpackage for a distributed, Redis-backed one.
*/
package queue
