// Package export writes reporting data to CSV files.
//
// Exports run on a Queue with a bounded number of workers. Each job reads
// its rows through a RowReader, writes them to a temporary file of a Storage
// and renames it into place once complete. File names are derived by
// CompleteFileName from the method label, the requested window and the
// caller's naming options.
//
// Jobs enqueued together form a Batch. A FatalError raised by one job of a
// batch, such as a storage failure, cancels the rest of it; any other error
// only fails the job that hit it.
package export
