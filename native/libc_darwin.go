package native

const libcPath = "/usr/lib/libSystem.B.dylib"
