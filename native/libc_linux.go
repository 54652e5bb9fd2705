package native

const libcPath = "libc.so.6"
