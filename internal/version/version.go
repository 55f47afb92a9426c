package version

// Version is reported in the User-Agent header and on metric instrumentation scopes
const Version = "0.1.0"
