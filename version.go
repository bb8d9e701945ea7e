package sharp

// Version of the Sharp language runtime.
const Version = "0.3.0"
