// Package trainer runs the epoch loop of a magnitude-domain enhancement
// network: minibatch updates, periodic validation, best model selection and
// checkpointing, resumable from any checkpoint it wrote.
package trainer
