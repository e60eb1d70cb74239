// Package oracle implements the data feed transactions: account creation,
// value publication, license and subscription management, the limit auditor
// and the signed direct read. Each type registers itself with the tx
// registry from init().
package oracle
