// Package artisan runs Laravel's artisan console as a sub-process.
//
// It is the only place the tool starts PHP. Routes are registered by
// service providers at boot time, closures and route groups included, so
// they cannot be recovered from the route files alone; asking the
// application through "php artisan route:list --json" is the only faithful
// source.
package artisan
