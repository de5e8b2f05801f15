// Package comm is the message-passing layer between subdomain workers.
//
// A [Group] of in-process ranks meets at blocking collectives ([Comm.Reduce],
// [Comm.Broadcast], [Comm.AllReduce], [Comm.AllGather], [Comm.AllReduceStep]).
// No rank returns from a collective before every rank has entered it.
// [Decompose] partitions the cells contiguously and [Comm.RefreshGhosts]
// mirrors neighbour values into ghost cells.
package comm
