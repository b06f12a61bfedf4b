// Package fakestore lists products from the public demo catalog at
// https://fakestoreapi.com.
//
// [Client.CategoryQuery] binds [Client.Category] to the key
// {fakestore.products, category}. It sets no stale time of its own, so
// with the default cache settings every query shows the cached list and
// revalidates it in the background.
package fakestore
